package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg ConnectionManagerConfig) (*ConnectionManager, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := NewConnectionManager(rdb, cfg)
	t.Cleanup(m.Stop)
	return m, mr, rdb
}

func TestConnectionManager_RegisterMarksOnline(t *testing.T) {
	var onlineCount int32
	m, _, _ := newTestManager(t, ConnectionManagerConfig{
		OnUserOnline: func(_ uint) { atomic.AddInt32(&onlineCount, 1) },
	})

	ctx := context.Background()
	m.Register(ctx, 7)

	assert.True(t, m.IsOnline(ctx, 7))
	assert.Equal(t, int32(1), atomic.LoadInt32(&onlineCount))

	// A second connection for the same user does not re-announce.
	m.Register(ctx, 7)
	assert.Equal(t, int32(1), atomic.LoadInt32(&onlineCount))
}

func TestConnectionManager_UnregisterHonorsGracePeriod(t *testing.T) {
	var offlineCount int32
	m, _, _ := newTestManager(t, ConnectionManagerConfig{
		OfflineGracePeriod: 20 * time.Millisecond,
		OnUserOffline:      func(_ uint) { atomic.AddInt32(&offlineCount, 1) },
	})

	ctx := context.Background()
	m.Register(ctx, 9)
	m.Unregister(ctx, 9)

	// Reconnect inside the grace window suppresses the offline transition.
	m.Register(ctx, 9)
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&offlineCount) > 0
	}, 60*time.Millisecond, 10*time.Millisecond)
	assert.True(t, m.IsOnline(ctx, 9))
}

func TestConnectionManager_OfflineAfterLastSeenExpiry(t *testing.T) {
	var offlineCount int32
	m, mr, _ := newTestManager(t, ConnectionManagerConfig{
		OfflineGracePeriod: 100 * time.Millisecond,
		OnUserOffline:      func(_ uint) { atomic.AddInt32(&offlineCount, 1) },
	})

	ctx := context.Background()
	m.Register(ctx, 12)
	m.Unregister(ctx, 12)

	// Expire the Redis last-seen key so the grace timer finalizes offline.
	mr.FastForward(2 * defaultPresenceTTL)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&offlineCount) == 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, m.IsOnline(ctx, 12))
}

func TestConnectionManager_GetOnlineUserIDsFiltersStale(t *testing.T) {
	m, _, rdb := newTestManager(t, ConnectionManagerConfig{})
	ctx := context.Background()

	m.Register(ctx, 3)

	// A user left over from a crashed instance: in the online set but with no
	// live last-seen key.
	require.NoError(t, rdb.SAdd(ctx, defaultPresenceOnlineSetKey, "99").Err())

	ids := m.GetOnlineUserIDs(ctx)
	assert.Equal(t, []uint{3}, ids)

	// The stale member is pruned as a side effect.
	isMember, err := rdb.SIsMember(ctx, defaultPresenceOnlineSetKey, "99").Result()
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestConnectionManager_WorksWithoutRedis(t *testing.T) {
	m := NewConnectionManager(nil, ConnectionManagerConfig{})
	defer m.Stop()

	ctx := context.Background()
	m.Register(ctx, 5)

	assert.True(t, m.IsOnline(ctx, 5))
	assert.Equal(t, []uint{5}, m.GetOnlineUserIDs(ctx))
}
