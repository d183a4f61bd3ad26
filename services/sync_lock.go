package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	redsyncgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrSyncInProgress = errors.New("catalog sync already in progress")

// SyncLocker gates re-entrancy of the catalog sync. TryLock never waits:
// it either returns an unlock func or ErrSyncInProgress.
type SyncLocker interface {
	TryLock(ctx context.Context) (unlock func(), err error)
}

// LocalSyncLock guards a single process.
type LocalSyncLock struct {
	mu sync.Mutex
}

func NewLocalSyncLock() *LocalSyncLock {
	return &LocalSyncLock{}
}

func (l *LocalSyncLock) TryLock(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	return l.mu.Unlock, nil
}

// RedisSyncLock guards every replica sharing one Redis.
// The expiry must outlast the longest sync; an expired lock lets another run start.
type RedisSyncLock struct {
	rs     *redsync.Redsync
	name   string
	expiry time.Duration
}

func NewRedisSyncLock(client redis.UniversalClient, name string, expiry time.Duration) *RedisSyncLock {
	pool := redsyncgoredis.NewPool(client)
	return &RedisSyncLock{
		rs:     redsync.New(pool),
		name:   name,
		expiry: expiry,
	}
}

func (l *RedisSyncLock) TryLock(ctx context.Context) (func(), error) {
	mutex := l.rs.NewMutex(l.name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)
	if err := mutex.TryLockContext(ctx); err != nil {
		if lockContended(err) {
			return nil, ErrSyncInProgress
		}
		return nil, fmt.Errorf("acquiring sync lock %q: %w", l.name, err)
	}
	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			log.Warn().Err(err).Str("lock", l.name).Msg("[SYNC] failed to release sync lock")
		}
	}, nil
}

func lockContended(err error) bool {
	if errors.Is(err, redsync.ErrFailed) {
		return true
	}
	var taken *redsync.ErrTaken
	return errors.As(err, &taken)
}
