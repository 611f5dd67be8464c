package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/karndiy/gold-vertical-panel/internal/db"
	"github.com/karndiy/gold-vertical-panel/internal/service"
)

func ledgerCmd(c Context, args []string) (int, error) {
	if len(args) == 0 {
		return service.ExitSetup, errors.New("ledger subcommand required: list|reset")
	}
	conn, repo, err := openLedger(c)
	if err != nil {
		return service.ExitSetup, err
	}
	defer db.Close(conn)
	ledger := &service.LedgerService{Repo: repo, Logger: c.logger()}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("goldpanel ledger list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		limit := fs.Int("limit", 50, "max entries")
		if err := fs.Parse(args[1:]); err != nil {
			return service.ExitSetup, err
		}
		items, err := ledger.List(c.ctx(), *limit)
		if err != nil {
			return service.ExitSetup, err
		}
		return service.ExitOK, c.write(items)

	case "reset", "delete", "rm":
		fs := flag.NewFlagSet("goldpanel ledger reset", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		seq := fs.String("seq", "", "sequence id")
		ts := fs.String("ts", "", `timestamp, e.g. "24/02/2569 11:32"`)
		if err := fs.Parse(args[1:]); err != nil {
			return service.ExitSetup, err
		}
		if strings.TrimSpace(*seq) == "" || strings.TrimSpace(*ts) == "" {
			return service.ExitSetup, errors.New("--seq and --ts required")
		}
		n, err := ledger.Reset(c.ctx(), *seq, *ts)
		if err != nil {
			return service.ExitSetup, err
		}
		return service.ExitOK, c.write(map[string]any{"removed": n})

	default:
		return service.ExitSetup, fmt.Errorf("unknown ledger subcommand: %s", args[0])
	}
}
