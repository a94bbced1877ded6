package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test")
}

func waitSettled(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("settlement channel never fired")
		return nil
	}
}

func TestQueueSendsInFIFOOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	q := NewEmailQueue(func(_ context.Context, item QueueItem) error {
		mu.Lock()
		order = append(order, item.Subject)
		mu.Unlock()
		return nil
	}, time.Millisecond, testLogger())

	var settles []<-chan error
	for _, subject := range []string{"first", "second", "third"} {
		settles = append(settles, q.Enqueue(QueueItem{BillID: uuid.New(), Subject: subject}))
	}
	for _, done := range settles {
		if err := waitSettled(t, done); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v, want [first second third]", order)
	}
}

func TestQueueAtMostOneInFlight(t *testing.T) {
	var inFlight, maxInFlight int32

	q := NewEmailQueue(func(_ context.Context, _ QueueItem) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			max := atomic.LoadInt32(&maxInFlight)
			if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}, time.Millisecond, testLogger())

	var settles []<-chan error
	var wg sync.WaitGroup
	var settleMu sync.Mutex
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := q.Enqueue(QueueItem{BillID: uuid.New()})
			settleMu.Lock()
			settles = append(settles, done)
			settleMu.Unlock()
		}()
	}
	wg.Wait()

	for _, done := range settles {
		if err := waitSettled(t, done); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Fatalf("max concurrent sends = %d, want 1", got)
	}
}

func TestQueueFailureRejectsOnlyThatItem(t *testing.T) {
	sendErr := errors.New("provider down")

	q := NewEmailQueue(func(_ context.Context, item QueueItem) error {
		if item.Subject == "broken" {
			return sendErr
		}
		return nil
	}, time.Millisecond, testLogger())

	first := q.Enqueue(QueueItem{BillID: uuid.New(), Subject: "broken"})
	second := q.Enqueue(QueueItem{BillID: uuid.New(), Subject: "fine"})

	if err := waitSettled(t, first); !errors.Is(err, sendErr) {
		t.Fatalf("first settlement = %v, want %v", err, sendErr)
	}
	if err := waitSettled(t, second); err != nil {
		t.Fatalf("second settlement = %v, want nil", err)
	}
}

func TestCancelPendingForBillSettlesWithErrCancelled(t *testing.T) {
	release := make(chan struct{})
	billID := uuid.New()
	otherID := uuid.New()

	q := NewEmailQueue(func(_ context.Context, _ QueueItem) error {
		<-release
		return nil
	}, time.Millisecond, testLogger())

	// The first item occupies the processor so the rest stay pending.
	inFlight := q.Enqueue(QueueItem{BillID: otherID, Subject: "in flight"})
	pending1 := q.Enqueue(QueueItem{BillID: billID, Subject: "stale"})
	pending2 := q.Enqueue(QueueItem{BillID: billID, Subject: "staler"})
	kept := q.Enqueue(QueueItem{BillID: otherID, Subject: "kept"})

	q.CancelPendingForBill(billID)

	if err := waitSettled(t, pending1); !errors.Is(err, ErrCancelled) {
		t.Fatalf("pending1 settlement = %v, want ErrCancelled", err)
	}
	if err := waitSettled(t, pending2); !errors.Is(err, ErrCancelled) {
		t.Fatalf("pending2 settlement = %v, want ErrCancelled", err)
	}

	close(release)
	if err := waitSettled(t, inFlight); err != nil {
		t.Fatalf("in-flight settlement = %v, want nil", err)
	}
	if err := waitSettled(t, kept); err != nil {
		t.Fatalf("kept settlement = %v, want nil", err)
	}
}

func TestCancelPendingForBillIsIdempotent(t *testing.T) {
	q := NewEmailQueue(func(_ context.Context, _ QueueItem) error {
		return nil
	}, time.Millisecond, testLogger())

	billID := uuid.New()
	q.CancelPendingForBill(billID)
	q.CancelPendingForBill(billID)

	if n := q.PendingCount(); n != 0 {
		t.Fatalf("pending count = %d, want 0", n)
	}
}

func TestQueueThrottlesBetweenSends(t *testing.T) {
	var mu sync.Mutex
	var sentAt []time.Time
	ready := make(chan struct{})

	throttle := 50 * time.Millisecond
	q := NewEmailQueue(func(_ context.Context, _ QueueItem) error {
		// Holds the first send until both items sit in the queue so the
		// throttle between them is observable.
		<-ready
		mu.Lock()
		sentAt = append(sentAt, time.Now())
		mu.Unlock()
		return nil
	}, throttle, testLogger())

	first := q.Enqueue(QueueItem{BillID: uuid.New()})
	second := q.Enqueue(QueueItem{BillID: uuid.New()})
	close(ready)

	if err := waitSettled(t, first); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := waitSettled(t, second); err != nil {
		t.Fatalf("second send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sentAt) != 2 {
		t.Fatalf("sends = %d, want 2", len(sentAt))
	}
	if gap := sentAt[1].Sub(sentAt[0]); gap < throttle {
		t.Fatalf("gap between sends = %v, want at least %v", gap, throttle)
	}
}

func TestQueueDrainsAndRestarts(t *testing.T) {
	var count int32
	q := NewEmailQueue(func(_ context.Context, _ QueueItem) error {
		atomic.AddInt32(&count, 1)
		return nil
	}, time.Millisecond, testLogger())

	if err := waitSettled(t, q.Enqueue(QueueItem{BillID: uuid.New()})); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	// The processor exits once drained; a later enqueue must restart it.
	if err := waitSettled(t, q.Enqueue(QueueItem{BillID: uuid.New()})); err != nil {
		t.Fatalf("second batch failed: %v", err)
	}

	if got := atomic.LoadInt32(&count); got != 2 {
		t.Fatalf("sends = %d, want 2", got)
	}
}
