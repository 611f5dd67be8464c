package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/db"
	"github.com/karndiy/gold-vertical-panel/internal/publish"
	"github.com/karndiy/gold-vertical-panel/internal/repository"
	gormrepository "github.com/karndiy/gold-vertical-panel/internal/repository/gorm"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

func newLedger(t *testing.T) (*LedgerService, *gormrepository.Store) {
	t.Helper()
	conn, err := db.Open(config.DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := gormrepository.New(conn.Gorm)
	return &LedgerService{Repo: repo}, repo
}

func TestLedgerService_MarkTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	for i := 0; i < 2; i++ {
		if err := l.MarkProcessed(ctx, "7", "24/02/2569 11:32"); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	items, err := l.List(ctx, 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("items=%d err=%v", len(items), err)
	}

	n, err := l.Reset(ctx, " 7 ", "24/02/2569 11:32")
	if err != nil || n != 1 {
		t.Fatalf("reset n=%d err=%v", n, err)
	}
	if ok, _ := l.IsProcessed(ctx, "7", "24/02/2569 11:32"); ok {
		t.Fatalf("entry still processed after reset")
	}
}

func TestLedgerService_NilRepo(t *testing.T) {
	var l *LedgerService
	if ok, err := l.IsProcessed(context.Background(), "1", "x"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if err := l.MarkProcessed(context.Background(), "1", "x"); err != nil {
		t.Fatalf("mark: %v", err)
	}
}

// Two back-to-back runs against a real cache file and ledger: the second
// sees the same latest snapshot and publishes nothing.
func TestWorkflow_TwoRunsWithRealStores(t *testing.T) {
	ledger, repo := newLedger(t)
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "gold_prices.json"))
	log := &callLog{}
	pub := &stubPublisher{log: log, name: "telegram"}

	svc := &WorkflowService{
		Fetcher:    &stubFetcher{log: log, rows: []snapshot.Snapshot{row("6", "24/02/2569 09:31"), row("7", "24/02/2569 11:32")}},
		Store:      store,
		Ledger:     ledger,
		Renderer:   &stubRenderer{log: log},
		Publishers: []publish.Publisher{pub},
		Runs:       repo,
		Config:     config.WorkflowConfig{MaxAge: time.Hour},
		Now:        func() time.Time { return clock },
	}

	first := svc.Run(context.Background())
	second := svc.Run(context.Background())
	if first.State != StateDone || second.State != StateSkipped {
		t.Fatalf("first=%s second=%s", first.State, second.State)
	}
	if len(pub.posts) != 1 {
		t.Fatalf("published %d times", len(pub.posts))
	}

	cached, err := store.Load()
	if err != nil || len(cached) != 2 {
		t.Fatalf("cache=%d err=%v", len(cached), err)
	}
	runs, err := repo.ListWorkflowRuns(context.Background(), repository.ListWorkflowRunsParams{})
	if err != nil || len(runs) != 2 {
		t.Fatalf("runs=%d err=%v", len(runs), err)
	}
}
