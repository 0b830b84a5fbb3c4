package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"chargenet-cloud/internal/observability/metrics"

	"github.com/google/uuid"
)

const (
	defaultQueueSize   = 256
	defaultSendTimeout = 10 * time.Second
)

// Notification is one admin-facing notice.
type Notification struct {
	ID         string
	TenantID   string
	LocationID string
	Message    string
	CreatedAt  time.Time
}

// Queue decouples batch loops from notification delivery: producers enqueue
// without blocking and a single consumer drains to the channel. A full queue
// drops the new notification and counts the drop.
type Queue struct {
	channel Channel
	logger  *log.Logger
	items   chan Notification
	wg      sync.WaitGroup
	once    sync.Once
}

// QueueOption configures the queue.
type QueueOption func(*Queue)

// WithQueueSize overrides the queue capacity.
func WithQueueSize(size int) QueueOption {
	return func(q *Queue) {
		if size > 0 {
			q.items = make(chan Notification, size)
		}
	}
}

// NewQueue constructs a notification queue. Start must be called before
// notifications are delivered.
func NewQueue(channel Channel, logger *log.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = log.Default()
	}
	q := &Queue{
		channel: channel,
		logger:  logger,
		items:   make(chan Notification, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the consumer. It returns immediately.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.items:
				if !ok {
					return
				}
				q.deliver(item)
				metrics.SetNotifyQueueDepth(len(q.items))
			}
		}
	}()
}

// Close stops accepting notifications and waits for the consumer to drain.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.items) })
	q.wg.Wait()
}

func (q *Queue) deliver(item Notification) {
	if q.channel == nil {
		q.logger.Printf("notify: %s (tenant=%s location=%s)", item.Message, item.TenantID, item.LocationID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
	defer cancel()
	content := fmt.Sprintf("[%s] %s", item.TenantID, item.Message)
	if err := q.channel.Send(ctx, content); err != nil {
		q.logger.Printf("notify: delivery failed: id=%s err=%v", item.ID, err)
	}
}

// NotifyPatchFailure enqueues a status-patch failure notice for the tenant
// admins. It never blocks the caller.
func (q *Queue) NotifyPatchFailure(tenantID, locationID string, err error) {
	item := Notification{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		LocationID: locationID,
		Message:    fmt.Sprintf("status patch failed for location %s: %v", locationID, err),
		CreatedAt:  time.Now().UTC(),
	}
	select {
	case q.items <- item:
		metrics.SetNotifyQueueDepth(len(q.items))
	default:
		metrics.IncNotifyDropped()
		q.logger.Printf("notify: queue full, dropped: tenant=%s location=%s", tenantID, locationID)
	}
}
