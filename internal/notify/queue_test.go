package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWebhookChannel_SendsTextPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if err := channel.Send(context.Background(), "status patch failed"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.MsgType != "text" || got.Text.Content != "status patch failed" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestWebhookChannel_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if err := channel.Send(context.Background(), "x"); err == nil {
		t.Fatal("expected error on bad gateway")
	}
}

func TestNewWebhookChannel_EmptyURL(t *testing.T) {
	if _, err := NewWebhookChannel(""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

type recordingChannel struct {
	mu       sync.Mutex
	contents []string
	done     chan struct{}
	want     int
}

func (c *recordingChannel) Send(ctx context.Context, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = append(c.contents, content)
	if len(c.contents) == c.want {
		close(c.done)
	}
	return nil
}

func TestQueue_DeliversWithoutBlockingCaller(t *testing.T) {
	channel := &recordingChannel{done: make(chan struct{}), want: 1}
	queue := NewQueue(channel, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	queue.NotifyPatchFailure("tenant-a", "site-1", errors.New("boom"))

	select {
	case <-channel.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if len(channel.contents) != 1 {
		t.Fatalf("expected one delivery, got %d", len(channel.contents))
	}
	if !strings.Contains(channel.contents[0], "tenant-a") || !strings.Contains(channel.contents[0], "site-1") {
		t.Fatalf("unexpected content: %q", channel.contents[0])
	}
}

func TestQueue_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	// No consumer started: the single slot fills, the second notice drops.
	queue := NewQueue(nil, log.New(io.Discard, "", 0), WithQueueSize(1))
	done := make(chan struct{})
	go func() {
		queue.NotifyPatchFailure("tenant-a", "site-1", errors.New("first"))
		queue.NotifyPatchFailure("tenant-a", "site-2", errors.New("second"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	if got := len(queue.items); got != 1 {
		t.Fatalf("expected one queued item, got %d", got)
	}
}

func TestQueue_CloseDrains(t *testing.T) {
	channel := &recordingChannel{done: make(chan struct{}), want: 2}
	queue := NewQueue(channel, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	queue.NotifyPatchFailure("tenant-a", "site-1", errors.New("one"))
	queue.NotifyPatchFailure("tenant-a", "site-2", errors.New("two"))
	queue.Close()

	channel.mu.Lock()
	defer channel.mu.Unlock()
	if len(channel.contents) != 2 {
		t.Fatalf("expected both notices delivered before close returned, got %d", len(channel.contents))
	}
}
