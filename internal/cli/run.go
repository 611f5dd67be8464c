package cli

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/db"
	"github.com/karndiy/gold-vertical-panel/internal/fetcher"
	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

func runCmd(c Context, args []string) (int, error) {
	fs := flag.NewFlagSet("goldpanel run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return service.ExitSetup, err
	}

	conn, repo, err := openLedger(c)
	if err != nil {
		return service.ExitSetup, err
	}
	defer db.Close(conn)

	wf, err := buildWorkflow(c, repo)
	if err != nil {
		return service.ExitSetup, err
	}
	res := wf.Run(c.ctx())
	if err := c.write(res); err != nil {
		c.logger().Warn("writing result failed", zap.Error(err))
	}
	return res.ExitCode, nil
}

type fetchReport struct {
	Count  int                `json:"count"`
	Latest *snapshot.Snapshot `json:"latest,omitempty"`
	Path   string             `json:"path"`
	Error  string             `json:"error,omitempty"`
}

// fetchCmd refreshes the cache without touching the ledger or publishers.
func fetchCmd(c Context, args []string) (int, error) {
	fs := flag.NewFlagSet("goldpanel fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return service.ExitSetup, err
	}
	return fetchAndSave(c)
}

func fetchAndSave(c Context) (int, error) {
	f, err := fetcher.New(c.Config.Fetch, c.logger())
	if err != nil {
		return service.ExitSetup, err
	}
	store := &snapshot.Store{Path: c.Config.Snapshot.Path, Logger: c.logger()}

	rows, fetchErr := f.Fetch(c.ctx())
	if err := store.Save(rows); err != nil {
		return service.ExitSetup, err
	}
	report := fetchReport{Count: len(rows), Path: store.Path}
	if latest, ok := snapshot.Latest(rows); ok {
		report.Latest = &latest
	}
	if fetchErr != nil {
		report.Error = fetchErr.Error()
	}
	if err := c.write(report); err != nil {
		return service.ExitSetup, err
	}
	if len(rows) == 0 {
		return service.ExitCodeFor(fetchErr), nil
	}
	return service.ExitOK, nil
}
