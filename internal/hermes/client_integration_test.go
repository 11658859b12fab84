//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewClient(ctx, url, os.Getenv("NATS_TOKEN"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestIntegration_PublishSubscribe(t *testing.T) {
	c := connect(t)
	subject := "meeting.test." + uuid.NewString()

	received := make(chan map[string]string, 1)
	require.NoError(t, c.Subscribe(subject, "taskscribe-test", func(_ string, data []byte) {
		var msg map[string]string
		if json.Unmarshal(data, &msg) == nil {
			received <- msg
		}
	}))
	require.True(t, c.Connected())

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, c.Publish(subject, map[string]string{"meeting_id": "integration-meeting"}))

	select {
	case msg := <-received:
		assert.Equal(t, "integration-meeting", msg["meeting_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestIntegration_QueueGroupDeliversOnce(t *testing.T) {
	first := connect(t)
	second := connect(t)
	subject := "meeting.test." + uuid.NewString()

	var deliveries atomic.Int32
	handler := func(string, []byte) { deliveries.Add(1) }
	require.NoError(t, first.Subscribe(subject, "taskscribe-test", handler))
	require.NoError(t, second.Subscribe(subject, "taskscribe-test", handler))

	time.Sleep(100 * time.Millisecond)
	const sent = 10
	for i := 0; i < sent; i++ {
		require.NoError(t, first.Publish(subject, map[string]int{"n": i}))
	}

	assert.Eventually(t, func() bool { return deliveries.Load() == sent }, 5*time.Second, 50*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, sent, deliveries.Load(), "each message handled by exactly one member")
}
