package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raftaar7864/rental-management-backend/internal/email"
	"github.com/raftaar7864/rental-management-backend/platform/logger"

	"github.com/google/uuid"
)

// ErrCancelled settles queue items removed by CancelPendingForBill before
// they were processed.
var ErrCancelled = errors.New("email cancelled before send")

const sendTimeout = 20 * time.Second

// QueueItem is one pending email send request. Subject and HTML are rendered
// by the caller before enqueueing so the queue stays a pure transport.
type QueueItem struct {
	BillID     uuid.UUID
	To         string
	Subject    string
	HTML       string
	Attachment *email.Attachment // optional bill PDF
}

// SendFunc performs the actual delivery of one item.
type SendFunc func(ctx context.Context, item QueueItem) error

type queueEntry struct {
	item QueueItem
	done chan error
}

// EmailQueue serializes outbound email sends: strict FIFO, at most one send
// in flight, and a fixed throttle between consecutive sends to protect
// provider quotas. Items still pending can be cancelled per bill; an item
// already sending cannot. The queue is created once at startup and lives for
// the process.
type EmailQueue struct {
	mu         sync.Mutex
	items      []*queueEntry
	processing bool

	send     SendFunc
	throttle time.Duration
	log      *logger.Logger
}

// NewEmailQueue creates an email queue with the given delivery function and
// throttle interval between sends.
func NewEmailQueue(send SendFunc, throttle time.Duration, log *logger.Logger) *EmailQueue {
	if throttle <= 0 {
		throttle = 500 * time.Millisecond
	}
	return &EmailQueue{
		send:     send,
		throttle: throttle,
		log:      log,
	}
}

// Enqueue appends an item to the queue tail and returns a channel that
// settles exactly once when the item is sent, fails, or is cancelled. The
// processor is started if it is not already running.
func (q *EmailQueue) Enqueue(item QueueItem) <-chan error {
	entry := &queueEntry{
		item: item,
		done: make(chan error, 1),
	}

	q.mu.Lock()
	q.items = append(q.items, entry)
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	if start {
		go q.process()
	}

	return entry.done
}

// CancelPendingForBill removes all still-pending items for the given bill and
// settles them with ErrCancelled. An item already in flight is unaffected.
// Cancelling a bill with no pending items is a no-op.
func (q *EmailQueue) CancelPendingForBill(billID uuid.UUID) {
	q.mu.Lock()
	kept := q.items[:0]
	var cancelled []*queueEntry
	for _, entry := range q.items {
		if entry.item.BillID == billID {
			cancelled = append(cancelled, entry)
			continue
		}
		kept = append(kept, entry)
	}
	q.items = kept
	q.mu.Unlock()

	for _, entry := range cancelled {
		entry.done <- ErrCancelled
	}
	if len(cancelled) > 0 {
		q.log.Info("cancelled pending bill emails", "bill_id", billID.String(), "count", len(cancelled))
	}
}

// PendingCount reports the number of items not yet picked up by the processor.
func (q *EmailQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// process drains the queue sequentially. It runs on a single goroutine; the
// processing flag guarantees only one instance exists at a time.
func (q *EmailQueue) process() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		entry := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.send(ctx, entry.item)
		cancel()

		if err != nil {
			q.log.NotificationError("email", entry.item.BillID.String(), err)
		} else {
			q.log.Info("bill email sent", "bill_id", entry.item.BillID.String(), "to", entry.item.To)
		}
		entry.done <- err

		if q.PendingCount() > 0 {
			time.Sleep(q.throttle)
		}
	}
}
