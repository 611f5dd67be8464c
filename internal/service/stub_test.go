package service

import (
	"context"
	"errors"
	"sync"

	"github.com/karndiy/gold-vertical-panel/internal/models"
	"github.com/karndiy/gold-vertical-panel/internal/publish"
	"github.com/karndiy/gold-vertical-panel/internal/render"
	"github.com/karndiy/gold-vertical-panel/internal/repository"
	"github.com/karndiy/gold-vertical-panel/internal/runlock"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// callLog records the order in which collaborators are invoked.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(name string) int {
	n := 0
	for _, c := range l.list() {
		if c == name {
			n++
		}
	}
	return n
}

func (l *callLog) index(name string) int {
	for i, c := range l.list() {
		if c == name {
			return i
		}
	}
	return -1
}

type stubFetcher struct {
	log  *callLog
	rows []snapshot.Snapshot
	err  error
}

func (f *stubFetcher) Fetch(context.Context) ([]snapshot.Snapshot, error) {
	f.log.add("fetch")
	return f.rows, f.err
}

type memStore struct {
	log     *callLog
	data    []snapshot.Snapshot
	saved   [][]snapshot.Snapshot
	loadErr error
}

func (s *memStore) Load() ([]snapshot.Snapshot, error) {
	if s.loadErr != nil {
		return []snapshot.Snapshot{}, s.loadErr
	}
	return append([]snapshot.Snapshot(nil), s.data...), nil
}

func (s *memStore) Save(records []snapshot.Snapshot) error {
	s.log.add("save")
	s.saved = append(s.saved, records)
	s.data = append([]snapshot.Snapshot(nil), records...)
	return nil
}

type memLedger struct {
	log     *callLog
	keys    map[snapshot.Key]int
	readErr error
}

func newMemLedger(log *callLog) *memLedger {
	return &memLedger{log: log, keys: map[snapshot.Key]int{}}
}

func (l *memLedger) IsProcessed(_ context.Context, seq, ts string) (bool, error) {
	if l.readErr != nil {
		return false, l.readErr
	}
	return l.keys[snapshot.Key{SequenceID: seq, Timestamp: ts}] > 0, nil
}

func (l *memLedger) MarkProcessed(_ context.Context, seq, ts string) error {
	l.log.add("mark")
	l.keys[snapshot.Key{SequenceID: seq, Timestamp: ts}]++
	return nil
}

type stubRenderer struct {
	log    *callLog
	assets render.Assets
	err    error
}

func (r *stubRenderer) Render(context.Context, snapshot.Snapshot, snapshot.Snapshot) (render.Assets, error) {
	r.log.add("render")
	return r.assets, r.err
}

type stubPublisher struct {
	log   *callLog
	name  string
	err   error
	block bool
	posts []publish.Post
}

func (p *stubPublisher) Name() string { return p.name }

func (p *stubPublisher) Publish(ctx context.Context, post publish.Post) error {
	p.log.add("publish:" + p.name)
	p.posts = append(p.posts, post)
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

type stubLocker struct {
	held     bool
	released int
}

func (l *stubLocker) Acquire(context.Context) (runlock.Lease, error) {
	if l.held {
		return nil, runlock.ErrLocked
	}
	l.held = true
	return leaseFunc(func() { l.held = false; l.released++ }), nil
}

type leaseFunc func()

func (f leaseFunc) Release(context.Context) error { f(); return nil }

type memRuns struct {
	rows []models.WorkflowRun
}

func (r *memRuns) InsertWorkflowRun(_ context.Context, item *models.WorkflowRun) error {
	r.rows = append(r.rows, *item)
	return nil
}

func (r *memRuns) ListWorkflowRuns(context.Context, repository.ListWorkflowRunsParams) ([]models.WorkflowRun, error) {
	return r.rows, nil
}

var errBoom = errors.New("boom")
