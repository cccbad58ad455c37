package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lingomesh/voxgate/adapter"
)

func testNotification() *adapter.Notification {
	return &adapter.Notification{
		ContractVersion: adapter.ContractVersion,
		EventID:         "evt-001",
		Channel:         "translationCompleted",
		EventType:       "translation_completed",
		TaskID:          "task-001",
		Timestamp:       "2026-08-26T12:00:00Z",
		Payload:         json.RawMessage(`{"taskId":"task-001","targetLanguage":"fr"}`),
		Version:         "0.3.0",
	}
}

// asyncReceive starts a goroutine that reads one message from the subscriber
// and sends it to the returned channel. Must be called BEFORE Publish to avoid
// deadlocking miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultPrefix + ":translationCompleted")
	ch := asyncReceive(sub)

	n := testNotification()
	if err := a.Publish(context.Background(), n); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := waitMessage(t, ch)

	var received adapter.Notification
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if received.EventID != "evt-001" {
		t.Errorf("expected evt-001, got %s", received.EventID)
	}
	if received.EventType != "translation_completed" {
		t.Errorf("expected translation_completed, got %s", received.EventType)
	}
	if received.TaskID != "task-001" {
		t.Errorf("expected task-001, got %s", received.TaskID)
	}
}

func TestPublish_ChannelPerCategory(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Prefix: "gw"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	n := testNotification()
	n.Channel = "voiceJobProgress"

	if got := a.Channel(n); got != "gw:voiceJobProgress" {
		t.Errorf("channel = %q, want gw:voiceJobProgress", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.config.Prefix != DefaultPrefix {
		t.Errorf("expected default prefix %q, got %q", DefaultPrefix, a.config.Prefix)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, a.config.Timeout)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(Config{URL: "not-a-redis-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNew_NegativeRetries(t *testing.T) {
	mr := miniredis.RunT(t)
	if _, err := New(Config{URL: "redis://" + mr.Addr(), Retries: -1}); err == nil {
		t.Fatal("expected error for negative retries")
	}
}
