package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/auth"
	cronrunner "github.com/karndiy/gold-vertical-panel/internal/cron"
	"github.com/karndiy/gold-vertical-panel/internal/db"
	"github.com/karndiy/gold-vertical-panel/internal/handler"
	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// serveCmd runs the workflow on the cron schedule and serves the HTTP API
// until the context is cancelled.
func serveCmd(c Context, args []string) (int, error) {
	cfg := c.Config
	fs := flag.NewFlagSet("goldpanel serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", cfg.Server.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return service.ExitSetup, err
	}
	log := c.logger()
	ctx := c.ctx()

	conn, repo, err := openLedger(c)
	if err != nil {
		return service.ExitSetup, err
	}
	defer db.Close(conn)

	wf, err := buildWorkflow(c, repo)
	if err != nil {
		return service.ExitSetup, err
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	requireToken := auth.Middleware(auth.JWT{Secret: []byte(cfg.Server.JWTSecret)})
	if cfg.Server.JWTSecret == "" {
		log.Warn("server.jwt_secret is empty, /api/v1 is open")
	}

	handler.RegisterDocs(engine)
	healthHandler := &handler.HealthHandler{DB: conn}
	healthHandler.Register(engine)
	snapshotHandler := &handler.SnapshotHandler{
		Store:  &snapshot.Store{Path: cfg.Snapshot.Path, Logger: log},
		MaxAge: cfg.Workflow.MaxAge,
	}
	snapshotHandler.Register(engine, requireToken)
	runHandler := &handler.RunHandler{Repo: repo, Runner: wf, BaseCtx: ctx, Logger: log}
	runHandler.Register(engine, requireToken)
	ledgerHandler := &handler.LedgerHandler{Ledger: &service.LedgerService{Repo: repo, Logger: log}}
	ledgerHandler.Register(engine, requireToken)

	srv := &http.Server{
		Addr:    *addr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add("workflow", cfg.Cron.Workflow, func(ctx context.Context) {
			res := wf.Run(ctx)
			if res.ExitCode != service.ExitOK && res.State != service.StateBusy {
				log.Warn("scheduled run did not complete", zap.String("state", string(res.State)), zap.Int("exit_code", res.ExitCode))
			}
		})
		if err != nil {
			return service.ExitSetup, err
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case serveErr = <-errCh:
		log.Error("server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if serveErr != nil {
		return service.ExitSetup, serveErr
	}
	return service.ExitOK, nil
}
