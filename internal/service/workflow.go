package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/fetcher"
	"github.com/karndiy/gold-vertical-panel/internal/logger"
	"github.com/karndiy/gold-vertical-panel/internal/models"
	"github.com/karndiy/gold-vertical-panel/internal/publish"
	"github.com/karndiy/gold-vertical-panel/internal/render"
	"github.com/karndiy/gold-vertical-panel/internal/repository"
	"github.com/karndiy/gold-vertical-panel/internal/runlock"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

type State string

const (
	StateInit      State = "INIT"
	StateFetched   State = "FETCHED"
	StateSkipped   State = "SKIPPED"
	StateNew       State = "NEW"
	StateRendered  State = "RENDERED"
	StatePublished State = "PUBLISHED"
	StateRecorded  State = "RECORDED"
	StateDone      State = "DONE"
	StateAborted   State = "ABORTED"
	StateBusy      State = "BUSY"
)

// Process exit codes, one per outcome class.
const (
	ExitOK      = 0
	ExitSetup   = 1
	ExitNoData  = 2
	ExitNetwork = 3
	ExitHTTP    = 4
	ExitBusy    = 5
)

type Fetcher interface {
	Fetch(ctx context.Context) ([]snapshot.Snapshot, error)
}

type SnapshotStore interface {
	Load() ([]snapshot.Snapshot, error)
	Save(records []snapshot.Snapshot) error
}

type Ledger interface {
	IsProcessed(ctx context.Context, sequenceID, timestamp string) (bool, error)
	MarkProcessed(ctx context.Context, sequenceID, timestamp string) error
}

// Result is the outcome of one workflow run.
type Result struct {
	RunID      string             `json:"run_id"`
	State      State              `json:"state"`
	ExitCode   int                `json:"exit_code"`
	Latest     *snapshot.Snapshot `json:"latest,omitempty"`
	Assets     render.Assets      `json:"assets"`
	Outcomes   map[string]string  `json:"outcomes,omitempty"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

func (r Result) String() string {
	s := fmt.Sprintf("run %s: %s (exit %d)", r.RunID, r.State, r.ExitCode)
	if r.Latest != nil {
		s += fmt.Sprintf(" latest=#%s %s", r.Latest.SequenceID, r.Latest.Timestamp)
	}
	names := make([]string, 0, len(r.Outcomes))
	for name := range r.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s += fmt.Sprintf("\n  %s: %s", name, r.Outcomes[name])
	}
	if r.Error != "" {
		s += "\n  error: " + r.Error
	}
	return s
}

// WorkflowService runs fetch, dedup, render, publish and record in order.
// Only a run with no data at all aborts; every later step degrades.
type WorkflowService struct {
	Fetcher    Fetcher
	Store      SnapshotStore
	Ledger     Ledger
	Renderer   render.Renderer
	Publishers []publish.Publisher
	Locker     runlock.Locker
	Runs       repository.RunRepository
	Config     config.WorkflowConfig

	PublishTimeout time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

func (s *WorkflowService) Run(ctx context.Context) Result {
	return s.RunWithID(ctx, uuid.NewString())
}

func (s *WorkflowService) RunWithID(ctx context.Context, runID string) Result {
	res := Result{RunID: runID, State: StateInit, StartedAt: s.now()}
	log := s.logger().With(zap.String("run_id", runID))

	if s.Fetcher == nil || s.Store == nil {
		log.Error("workflow is missing its fetcher or snapshot store")
		return s.finish(ctx, log, res, StateAborted, ExitSetup, errors.New("workflow not configured"), false)
	}

	if s.Locker != nil {
		lease, err := s.Locker.Acquire(ctx)
		if errors.Is(err, runlock.ErrLocked) {
			log.Warn("another run holds the lock, exiting")
			res.State, res.ExitCode, res.FinishedAt = StateBusy, ExitBusy, s.now()
			return res
		}
		if err != nil {
			logger.Step(log, "lock").Error("acquire run lock failed", zap.Error(err))
			return s.finish(ctx, log, res, StateAborted, ExitSetup, err, true)
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Step(log, "lock").Warn("release run lock failed", zap.Error(err))
			}
		}()
	}

	// INIT -> FETCHED
	list, fetchErr := s.fetch(ctx, logger.Step(log, "fetch"))
	if len(list) == 0 {
		code := ExitCodeFor(fetchErr)
		logger.Step(log, "fetch").Error("no data from source or cache, aborting", zap.Int("exit_code", code))
		if fetchErr == nil {
			fetchErr = errors.New("no data")
		}
		return s.finish(ctx, log, res, StateAborted, code, fetchErr, true)
	}
	res.State = StateFetched
	latest, _ := snapshot.Latest(list)
	previous, _ := snapshot.Previous(list)
	res.Latest = &latest
	log = log.With(zap.String("sequence_id", latest.SequenceID), zap.String("timestamp", latest.Timestamp))

	fresh := CheckFreshness(list, s.now(), s.Config.MaxAge)
	if fresh.Parsed && !fresh.Fresh {
		logger.Step(log, "freshness").Warn("latest snapshot is stale", zap.Duration("age", fresh.Age), zap.Duration("max_age", fresh.MaxAge))
		if s.Config.SkipStale {
			return s.finish(ctx, log, res, StateSkipped, ExitOK, nil, true)
		}
	}

	// FETCHED -> SKIPPED | NEW
	if s.processed(ctx, logger.Step(log, "dedup"), latest) {
		logger.Step(log, "dedup").Info("latest snapshot already published, skipping")
		return s.finish(ctx, log, res, StateSkipped, ExitOK, nil, true)
	}
	res.State = StateNew

	// NEW -> RENDERED
	res.Assets = s.render(ctx, logger.Step(log, "render"), latest, previous)
	res.State = StateRendered

	// RENDERED -> PUBLISHED
	post := publish.Compose(latest, list, res.Assets)
	res.Outcomes = s.publish(ctx, logger.Step(log, "publish"), post)
	res.State = StatePublished

	// PUBLISHED -> RECORDED
	if s.Ledger != nil {
		if err := s.Ledger.MarkProcessed(context.WithoutCancel(ctx), latest.SequenceID, latest.Timestamp); err != nil {
			logger.Step(log, "record").Error("ledger write failed, snapshot may be published again", zap.Error(err))
		}
	}
	res.State = StateRecorded

	return s.finish(ctx, log, res, StateDone, ExitOK, nil, true)
}

// fetch returns the fresh table, or the previous cache when the source gave
// nothing. The fetch result is saved even when empty.
func (s *WorkflowService) fetch(ctx context.Context, log *zap.Logger) ([]snapshot.Snapshot, error) {
	prior, err := s.Store.Load()
	if err != nil {
		log.Warn("snapshot cache unreadable, treating as empty", zap.Error(err))
	}

	fetched, fetchErr := s.Fetcher.Fetch(ctx)
	if fetchErr != nil {
		log.Warn("fetch failed", zap.Error(fetchErr))
	}
	if err := s.Store.Save(fetched); err != nil {
		log.Warn("saving snapshot cache failed", zap.Error(err))
	}
	if len(fetched) > 0 {
		log.Info("fetched snapshots", zap.Int("count", len(fetched)))
		return fetched, nil
	}
	if len(prior) > 0 {
		log.Warn("source returned nothing, using previous cache", zap.Int("count", len(prior)))
		return prior, nil
	}
	return nil, fetchErr
}

// processed treats a ledger read error as "not yet published"; a duplicate
// post is preferred over a missed one.
func (s *WorkflowService) processed(ctx context.Context, log *zap.Logger, latest snapshot.Snapshot) bool {
	if s.Ledger == nil {
		return false
	}
	ok, err := s.Ledger.IsProcessed(ctx, latest.SequenceID, latest.Timestamp)
	if err != nil {
		log.Warn("ledger read failed, continuing as new", zap.Error(err))
		return false
	}
	return ok
}

func (s *WorkflowService) render(ctx context.Context, log *zap.Logger, latest, previous snapshot.Snapshot) render.Assets {
	if s.Renderer == nil {
		return render.Assets{}
	}
	assets, err := s.Renderer.Render(ctx, latest, previous)
	switch {
	case errors.Is(err, render.ErrDisabled):
		log.Info("renderer disabled, publishing text only")
		return render.Assets{}
	case err != nil:
		log.Warn("render failed, publishing text only", zap.Error(err))
		return render.Assets{}
	}
	log.Info("rendered panel", zap.String("image", assets.ImagePath), zap.String("video", assets.VideoPath))
	return assets
}

// publish calls every publisher in turn; a failure is logged and the next
// publisher still runs.
func (s *WorkflowService) publish(ctx context.Context, log *zap.Logger, post publish.Post) map[string]string {
	outcomes := make(map[string]string, len(s.Publishers))
	for _, p := range s.Publishers {
		name := p.Name()
		err := s.publishOne(ctx, p, post)
		if err != nil {
			log.Warn("publish failed", zap.String("publisher", name), zap.Error(err))
			outcomes[name] = err.Error()
			continue
		}
		log.Info("published", zap.String("publisher", name))
		outcomes[name] = "ok"
	}
	return outcomes
}

func (s *WorkflowService) publishOne(ctx context.Context, p publish.Publisher, post publish.Post) (err error) {
	if s.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.PublishTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("publisher panicked")
		}
	}()
	return p.Publish(ctx, post)
}

func (s *WorkflowService) finish(ctx context.Context, log *zap.Logger, res Result, state State, code int, err error, persist bool) Result {
	res.State = state
	res.ExitCode = code
	res.FinishedAt = s.now()
	if err != nil {
		res.Error = err.Error()
	}
	log.Info("workflow finished",
		zap.String("state", string(state)),
		zap.Int("exit_code", code),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)
	if persist {
		s.saveRun(context.WithoutCancel(ctx), log, res)
	}
	return res
}

func (s *WorkflowService) saveRun(ctx context.Context, log *zap.Logger, res Result) {
	if s.Runs == nil {
		return
	}
	row := &models.WorkflowRun{
		RunID:      res.RunID,
		State:      string(res.State),
		ExitCode:   res.ExitCode,
		Rendered:   !res.Assets.Empty(),
		Recorded:   res.State == StateDone,
		Error:      res.Error,
		StartedAt:  res.StartedAt.UTC(),
		FinishedAt: res.FinishedAt.UTC(),
	}
	if res.Latest != nil {
		row.SequenceID = res.Latest.SequenceID
		row.Timestamp = res.Latest.Timestamp
	}
	if len(res.Outcomes) > 0 {
		if b, err := json.Marshal(res.Outcomes); err == nil {
			row.Outcomes = datatypes.JSON(b)
		}
	}
	if err := s.Runs.InsertWorkflowRun(ctx, row); err != nil {
		log.Warn("saving workflow run failed", zap.Error(err))
	}
}

// ExitCodeFor maps a fetch failure to the process exit code.
func ExitCodeFor(err error) int {
	var nerr *fetcher.NetworkError
	var herr *fetcher.HTTPStatusError
	switch {
	case errors.As(err, &herr):
		return ExitHTTP
	case errors.As(err, &nerr):
		return ExitNetwork
	}
	return ExitNoData
}

func (s *WorkflowService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *WorkflowService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
