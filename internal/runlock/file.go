package runlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileLocker holds the lock by creating Path exclusively. A lock file older
// than TTL is considered abandoned by a crashed run and is taken over.
type FileLocker struct {
	Path string
	TTL  time.Duration
	Now  func() time.Time
}

type lockFile struct {
	Token      string    `json:"token"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func NewFileLocker(path string, ttl time.Duration) *FileLocker {
	return &FileLocker{Path: path, TTL: ttl, Now: time.Now}
}

func (l *FileLocker) Acquire(ctx context.Context) (Lease, error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lease, err := l.create()
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !l.stale() {
			return nil, ErrLocked
		}
		if err := os.Remove(l.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, ErrLocked
}

func (l *FileLocker) create() (*fileLease, error) {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	body := lockFile{Token: uuid.NewString(), PID: os.Getpid(), AcquiredAt: l.now().UTC()}
	if err := json.NewEncoder(f).Encode(body); err != nil {
		f.Close()
		os.Remove(l.Path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(l.Path)
		return nil, err
	}
	return &fileLease{path: l.Path, token: body.Token}, nil
}

// stale falls back to the file's mtime when its content cannot be read.
func (l *FileLocker) stale() bool {
	var acquired time.Time
	if body, err := readLockFile(l.Path); err == nil && !body.AcquiredAt.IsZero() {
		acquired = body.AcquiredAt
	} else if info, err := os.Stat(l.Path); err == nil {
		acquired = info.ModTime()
	} else {
		// Vanished between create and stat; let the caller retry.
		return errors.Is(err, fs.ErrNotExist)
	}
	return l.now().Sub(acquired) > l.TTL
}

func (l *FileLocker) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func readLockFile(path string) (lockFile, error) {
	var body lockFile
	b, err := os.ReadFile(path)
	if err != nil {
		return body, err
	}
	err = json.Unmarshal(b, &body)
	return body, err
}

type fileLease struct {
	path  string
	token string
}

// Release removes the lock file unless another run has since taken it over.
func (l *fileLease) Release(context.Context) error {
	body, err := readLockFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && body.Token != l.token {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
