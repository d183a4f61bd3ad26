package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSyncLock(t *testing.T) {
	lock := NewLocalSyncLock()
	ctx := context.Background()

	unlock, err := lock.TryLock(ctx)
	require.NoError(t, err)

	_, err = lock.TryLock(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	unlock()
	unlock2, err := lock.TryLock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestLocalSyncLock_ConcurrentAttemptsFailFast(t *testing.T) {
	lock := NewLocalSyncLock()
	unlock, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	defer unlock()

	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lock.TryLock(context.Background()); errors.Is(err, ErrSyncInProgress) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(8), rejected.Load())
}
