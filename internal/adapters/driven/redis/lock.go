package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// DefaultLockPrefix namespaces run locks.
const DefaultLockPrefix = "cfr:lock:"

// ErrNotOwner is returned when extending a lock held by another process.
var ErrNotOwner = errors.New("lock not held by this process")

// Lock guards ingestion runs across processes sharing one Redis.
// The key holds the owner ID of the process running the ingestion, so an
// operator can see which host and pid holds a stuck lock.
type Lock struct {
	client  redis.UniversalClient
	prefix  string
	ownerID string
	logger  *slog.Logger
}

// LockConfig holds optional settings for Lock.
type LockConfig struct {
	// Prefix namespaces lock keys; empty selects DefaultLockPrefix
	Prefix string
	Logger *slog.Logger
}

// NewLock creates a Redis-backed run lock.
func NewLock(client redis.UniversalClient, cfg LockConfig) *Lock {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultLockPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Lock{
		client:  client,
		prefix:  cfg.Prefix,
		ownerID: newOwnerID(),
		logger:  cfg.Logger,
	}
}

// newOwnerID returns hostname:pid:uuid.
func newOwnerID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString())
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire takes the named lock for ttl. When another process holds it the
// holder is logged and false is returned without error.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		l.logHolder(ctx, "run lock held by another process", name)
	}
	return ok, nil
}

// ownedOp runs a command on the lock key only while ARGV[1] owns it.
// ARGV[2] selects "release" or "extend"; ARGV[3] is the extend TTL in ms.
var ownedOp = redis.NewScript(`
	if redis.call("get", KEYS[1]) ~= ARGV[1] then
		return 0
	end
	if ARGV[2] == "release" then
		return redis.call("del", KEYS[1])
	end
	return redis.call("pexpire", KEYS[1], ARGV[3])
`)

// Release drops the named lock if this process owns it. Releasing a lock
// that expired or was never taken is not an error.
func (l *Lock) Release(ctx context.Context, name string) error {
	n, err := ownedOp.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, "release", 0).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if n == 0 {
		l.logger.Debug("run lock was not held at release", "lock", name, "owner", l.ownerID)
	}
	return nil
}

// Extend pushes the TTL of a lock this process holds. Losing the lock
// mid-run means another process may now advance the checkpoint, so the
// current holder is logged.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := ownedOp.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, "extend", ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		l.logHolder(ctx, "run lock lost", name)
		return fmt.Errorf("extend lock %s: %w", name, ErrNotOwner)
	}
	return nil
}

// Holder returns the owner ID stored under the named lock and its remaining
// TTL. An unheld lock returns "" and no error.
func (l *Lock) Holder(ctx context.Context, name string) (string, time.Duration, error) {
	key := l.key(name)
	pipe := l.client.Pipeline()
	get := pipe.Get(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return "", 0, fmt.Errorf("read lock %s: %w", name, err)
	}
	owner, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("read lock %s: %w", name, err)
	}
	return owner, ttl.Val(), nil
}

func (l *Lock) logHolder(ctx context.Context, msg, name string) {
	holder, ttl, err := l.Holder(ctx, name)
	if err != nil {
		l.logger.Warn(msg, "lock", name, "owner", l.ownerID, "holder_error", err)
		return
	}
	l.logger.Warn(msg, "lock", name, "owner", l.ownerID, "holder", holder, "holder_ttl", ttl)
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns the identifier written into held lock keys.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
