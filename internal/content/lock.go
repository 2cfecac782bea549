package content

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"lectern/internal/services"
)

// TreeLock is an exclusive advisory lock on one content tree.
type TreeLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file guarding the tree at treePath.
func LockPath(treePath string) string {
	return treePath + ".lock"
}

// Lock acquires the tree lock without blocking. A lock held by another
// process fails with services.ErrLocked.
func Lock(treePath string) (*TreeLock, error) {
	path := LockPath(treePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrWriteFailure, "content", "acquire lock", path, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrWriteFailure, "content", "acquire lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrLocked, "content", "acquire lock", fmt.Sprintf("%s is held by another run", path), nil)
	}
	return &TreeLock{path: path, lock: lock}, nil
}

// Path returns the lock file path.
func (l *TreeLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Unlock releases the lock. The lock file itself is left in place.
func (l *TreeLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
