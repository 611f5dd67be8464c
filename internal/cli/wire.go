package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/db"
	"github.com/karndiy/gold-vertical-panel/internal/fetcher"
	"github.com/karndiy/gold-vertical-panel/internal/publish"
	"github.com/karndiy/gold-vertical-panel/internal/render"
	gormrepository "github.com/karndiy/gold-vertical-panel/internal/repository/gorm"
	"github.com/karndiy/gold-vertical-panel/internal/runlock"
	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

func openLedger(c Context) (*db.DB, *gormrepository.Store, error) {
	conn, err := db.Open(c.Config.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return conn, gormrepository.New(conn.Gorm), nil
}

func buildWorkflow(c Context, repo *gormrepository.Store) (*service.WorkflowService, error) {
	cfg := c.Config
	log := c.logger()

	f, err := fetcher.New(cfg.Fetch, log)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}
	locker, err := runlock.New(cfg.Lock)
	if err != nil {
		return nil, fmt.Errorf("run lock: %w", err)
	}
	creds, err := publish.LoadCredentials(cfg.Publish.CredentialsFile)
	if err != nil {
		log.Warn("credentials unreadable, credentialed publishers disabled", zap.Error(err))
	}

	return &service.WorkflowService{
		Fetcher:        f,
		Store:          &snapshot.Store{Path: cfg.Snapshot.Path, Logger: log},
		Ledger:         &service.LedgerService{Repo: repo, Logger: log},
		Renderer:       render.NewCommandRenderer(cfg.Render, log),
		Publishers:     publish.Build(cfg.Publish, creds, log),
		Locker:         locker,
		Runs:           repo,
		Config:         cfg.Workflow,
		PublishTimeout: cfg.Publish.Timeout,
		Logger:         log,
	}, nil
}
