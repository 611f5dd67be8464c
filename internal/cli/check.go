package cli

import (
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// checkCmd reports cache freshness. Stale or missing data exits 2 unless
// --update refreshes it.
func checkCmd(c Context, args []string) (int, error) {
	fs := flag.NewFlagSet("goldpanel check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	maxAge := fs.Duration("max-age", c.Config.Workflow.MaxAge, "oldest acceptable snapshot")
	update := fs.Bool("update", false, "fetch and save when the cache is stale")
	if err := fs.Parse(args); err != nil {
		return service.ExitSetup, err
	}

	list, err := (&snapshot.Store{Path: c.Config.Snapshot.Path, Logger: c.logger()}).Load()
	if err != nil {
		c.logger().Warn("snapshot cache unreadable", zap.Error(err))
	}
	f := service.CheckFreshness(list, time.Now(), *maxAge)
	if err := c.write(f); err != nil {
		return service.ExitSetup, err
	}
	if f.Fresh {
		return service.ExitOK, nil
	}
	if *update {
		c.logger().Info("cache is not fresh, fetching", zap.String("status", f.String()))
		return fetchAndSave(c)
	}
	return service.ExitNoData, nil
}
