package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lock is an acquired, named exclusive lock. It never outlives one job
// execution; the holder releases it on every exit path.
type Lock struct {
	Key        string
	HolderID   string
	AcquiredAt time.Time
}

// Key builds the canonical lock key for a tenant-scoped resource.
func Key(tenantID, kind, id string) string {
	return fmt.Sprintf("lock:%s:%s:%s", tenantID, kind, id)
}

// Manager hands out exclusive locks. TryAcquire never blocks: it returns nil
// when another holder owns the lock, which schedulers treat as a silent skip
// for the tick. Release is idempotent.
type Manager interface {
	TryAcquire(ctx context.Context, key string) (*Lock, error)
	Release(ctx context.Context, lock *Lock) error
}

// ErrNilLock is returned when releasing a nil lock.
var ErrNilLock = errors.New("locking: nil lock")

func newHolderID() string { return uuid.NewString() }
