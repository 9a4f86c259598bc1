package realtime_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/realtime"
)

func newTestPubSub(t *testing.T) *realtime.RedisPubSub {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return realtime.NewRedisPubSub(client, zap.NewNop())
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	ps := newTestPubSub(t)
	webinarID := uuid.New()

	type received struct {
		event   string
		payload []byte
	}
	got := make(chan received, 1)

	cancel, err := ps.SubscribeWebinar(webinarID, func(event string, payload []byte) {
		got <- received{event, payload}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.PublishWebinarEvent(webinarID, "interaction_changed", []byte(`{"id":"x"}`)))

	select {
	case msg := <-got:
		assert.Equal(t, "interaction_changed", msg.event)
		assert.JSONEq(t, `{"id":"x"}`, string(msg.payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannelsAreScopedPerWebinar(t *testing.T) {
	ps := newTestPubSub(t)
	a, b := uuid.New(), uuid.New()

	got := make(chan string, 2)
	cancel, err := ps.SubscribeWebinar(a, func(event string, _ []byte) { got <- event })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.PublishWebinarEvent(b, "response_added", []byte(`{}`)))
	require.NoError(t, ps.PublishWebinarEvent(a, "question_changed", []byte(`{}`)))

	select {
	case event := <-got:
		assert.Equal(t, "question_changed", event, "only the subscribed webinar's events arrive")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	select {
	case event := <-got:
		t.Fatalf("unexpected extra event %q", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	ps := newTestPubSub(t)
	webinarID := uuid.New()

	got := make(chan string, 1)
	cancel, err := ps.SubscribeWebinar(webinarID, func(event string, _ []byte) { got <- event })
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ps.PublishWebinarEvent(webinarID, "reaction_added", []byte(`{}`)))

	select {
	case event := <-got:
		t.Fatalf("received %q after cancel", event)
	case <-time.After(200 * time.Millisecond):
	}
}
