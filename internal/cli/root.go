package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/output"
	"github.com/karndiy/gold-vertical-panel/internal/service"
)

type Context struct {
	Ctx    context.Context
	Config config.Config
	Logger *zap.Logger
	Output output.Format
	Stdout io.Writer
}

func (c Context) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c Context) ctx() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `goldpanel [flags] <command> [args]

Global Flags:
  --config    config file (env: GP_CONFIG, default config/config.yaml)
  --output    json|text (default text)

Commands:
  run      fetch, dedup, render, publish and record once (default)
  fetch    fetch the price table and save the cache only
  check    report how fresh the cached data is
  ledger   list | reset --seq N --ts "dd/mm/yyyy HH:MM"
  serve    scheduled runs plus the HTTP API
  token    mint an API bearer token

Exit codes:
  0 ok or skipped, 1 setup error, 2 no data, 3 network failure,
  4 HTTP failure, 5 another run in progress
`)
}

// Dispatch runs one command and returns the process exit code.
func Dispatch(c Context, args []string) (int, error) {
	if len(args) == 0 {
		return runCmd(c, nil)
	}
	switch args[0] {
	case "run":
		return runCmd(c, args[1:])
	case "fetch":
		return fetchCmd(c, args[1:])
	case "check":
		return checkCmd(c, args[1:])
	case "ledger":
		return ledgerCmd(c, args[1:])
	case "serve":
		return serveCmd(c, args[1:])
	case "token":
		return tokenCmd(c, args[1:])
	case "help", "-h", "--help":
		Usage(c.stdout())
		return service.ExitOK, nil
	default:
		Usage(os.Stderr)
		return service.ExitSetup, fmt.Errorf("unknown command: %s", args[0])
	}
}

func (c Context) write(v any) error {
	return output.Write(c.stdout(), c.Output, v)
}
