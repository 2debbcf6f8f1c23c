package harvest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output directory while a run is active.
const LockFileName = ".menuscope.lock"

// ErrLocked reports that another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

type dirLock struct {
	path string
	lock *flock.Flock
}

func acquireDirLock(dir string) (*dirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output directory: %w", err)
	}
	path := filepath.Join(dir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &dirLock{path: path, lock: lock}, nil
}

func (l *dirLock) release() error {
	if l == nil {
		return nil
	}
	return l.lock.Unlock()
}
