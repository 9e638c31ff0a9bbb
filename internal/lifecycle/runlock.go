package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"plexshelf/internal/services"
)

// RunToken identifies the holder of the run lock.
type RunToken struct {
	RunID     string
	StartedAt time.Time
}

// RunLock allows one matching run at a time. The in-process mutex guards
// callers sharing a Manager; the file lock guards separate processes (the CLI
// and a running server) sharing a database.
type RunLock struct {
	mu     sync.Mutex
	active *RunToken
	file   *flock.Flock
}

// NewRunLock builds a lock. An empty path disables the cross-process file lock.
func NewRunLock(path string) *RunLock {
	lock := &RunLock{}
	if path != "" {
		lock.file = flock.New(path)
	}
	return lock
}

// Acquire takes the lock or fails with ErrRunAlreadyInProgress.
func (l *RunLock) Acquire() (RunToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != nil {
		return RunToken{}, services.Wrap(services.ErrRunAlreadyInProgress, "lifecycle", "acquire run lock",
			fmt.Sprintf("run %s started %s", l.active.RunID, l.active.StartedAt.Format(time.RFC3339)), nil)
	}
	if l.file != nil {
		ok, err := l.file.TryLock()
		if err != nil {
			return RunToken{}, services.Wrap(services.ErrPersistence, "lifecycle", "acquire run lock", l.file.Path(), err)
		}
		if !ok {
			return RunToken{}, services.Wrap(services.ErrRunAlreadyInProgress, "lifecycle", "acquire run lock",
				"another process holds "+l.file.Path(), nil)
		}
	}
	token := RunToken{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	l.active = &token
	return token, nil
}

// Release gives the lock back. Releasing with a token that does not hold the
// lock is an error and leaves the lock untouched.
func (l *RunLock) Release(token RunToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil || l.active.RunID != token.RunID {
		return fmt.Errorf("release run lock: token %s does not hold the lock", token.RunID)
	}
	l.active = nil
	if l.file != nil {
		if err := l.file.Unlock(); err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
	}
	return nil
}

// Active returns the current holder, if any.
func (l *RunLock) Active() (RunToken, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return RunToken{}, false
	}
	return *l.active, true
}
