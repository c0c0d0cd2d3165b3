package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUser_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestConversationChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "messaging:conv:5", ConversationChannel(5))
}

func TestRefreshEvents(t *testing.T) {
	t.Parallel()

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(RefreshMessagesEvent(ReasonNewMessage, 12)), &ev))
	assert.Equal(t, EventRefreshMessages, ev.Type)

	payload, ok := ev.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, ReasonNewMessage, payload["reason"])
	assert.EqualValues(t, 12, payload["conversation_id"])

	require.NoError(t, json.Unmarshal([]byte(RefreshRequestsEvent(ReasonRequestReceived, 3)), &ev))
	assert.Equal(t, EventRefreshRequests, ev.Type)
}

func TestNotifier_HubWiring_DeliversRefreshEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	hub := NewHub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(42, nil)
	require.NoError(t, err)

	payload := RefreshMessagesEvent(ReasonNewMessage, 9)
	require.NoError(t, n.PublishUser(ctx, 42, payload))

	var received atomic.Bool
	assert.Eventually(t, func() bool {
		select {
		case got := <-client.Send:
			received.Store(string(got) == payload)
		default:
		}
		return received.Load()
	}, time.Second, 10*time.Millisecond)

	_ = hub.Shutdown(context.Background())
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		atomic.AddInt32(&received, 1)
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "before-cancel"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)

	// Drain the pre-cancel message to avoid false positives.
	select {
	case <-payloads:
	default:
	}

	require.NoError(t, n.PublishUser(context.Background(), 1, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload == "after-cancel"
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}
