package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another worker owns the branch lock.
var ErrLockHeld = errors.New("branch lock held by another worker")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BranchLock is a redis mutex keyed by branch. It guarantees a single active
// reconciliation worker per branch across processes. The TTL bounds how long
// a crashed holder blocks the branch.
type BranchLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewBranchLock(client *redis.Client, ttl time.Duration) *BranchLock {
	return &BranchLock{
		client: client,
		prefix: "accessbridge:lock:reconcile:",
		ttl:    ttl,
	}
}

// Acquire takes the lock or returns ErrLockHeld. The returned release func
// only deletes the key if this holder still owns it.
func (l *BranchLock) Acquire(ctx context.Context, branchID uint) (func(), error) {
	key := fmt.Sprintf("%s%d", l.prefix, branchID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire branch lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// the caller's ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
