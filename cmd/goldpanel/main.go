package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/karndiy/gold-vertical-panel/internal/cli"
	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/logger"
	"github.com/karndiy/gold-vertical-panel/internal/output"
	"github.com/karndiy/gold-vertical-panel/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "config file (env: GP_CONFIG)")
		outFmt  = flag.String("output", "text", "Output format: json|text")
	)
	flag.Usage = func() { cli.Usage(os.Stderr) }
	flag.Parse()

	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv("GP_CONFIG")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("GP_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(path, envOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return service.ExitSetup
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return service.ExitSetup
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		return service.ExitSetup
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := cli.Dispatch(cli.Context{
		Ctx:    ctx,
		Config: cfg,
		Logger: log,
		Output: output.Format(strings.TrimSpace(*outFmt)),
	}, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	return code
}
