package realtime

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu   sync.Mutex
	got  map[string][]string
	seen chan struct{}
}

func (c *capturePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	c.mu.Lock()
	c.got[channel] = append(c.got[channel], string(payload))
	c.mu.Unlock()
	c.seen <- struct{}{}
	return nil
}

func TestRelay_ForwardsUserChannels(t *testing.T) {
	url := os.Getenv("STACKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("STACKIT_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	local := &capturePublisher{got: map[string][]string{}, seen: make(chan struct{}, 4)}
	relay := NewRelay(rdb, local)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("relay stopped early: %v", err)
	}

	notifier := NewRedisNotifier(rdb)
	require.NoError(t, notifier.Publish(ctx, "other_channel", []byte("ignored")))
	require.NoError(t, notifier.Publish(ctx, "user_relay-test", []byte(`{"event":"notification"}`)))

	select {
	case <-local.seen:
	case <-ctx.Done():
		t.Fatal("relayed message not received")
	}
	local.mu.Lock()
	assert.Equal(t, map[string][]string{"user_relay-test": {`{"event":"notification"}`}}, local.got)
	local.mu.Unlock()

	cancel()
	assert.NoError(t, <-done)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
