package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"tablebook/pkg/logger"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   chan struct{}
	once      sync.Once
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		km := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return km, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	if len(f.queue) == 0 {
		f.once.Do(func() { close(f.drained) })
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func runConsumer(t *testing.T, c *Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain queue")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() returned %v, want context.Canceled", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Offset: 1, Key: []byte("k")}}, drained: make(chan struct{})}

	var calls int
	handler := func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("flaky", nil)
		}
		return nil
	}
	c := &Consumer{reader: r, topic: "t", maxRetries: 3, retryBackoff: time.Millisecond, handler: handler, log: logger.Discard()}

	runConsumer(t, c, r)

	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
	if len(r.committed) != 1 || r.committed[0] != 1 {
		t.Errorf("committed = %v", r.committed)
	}
}

func TestConsumer_PermanentFailureGoesToDLQAndCommits(t *testing.T) {
	r := &fakeReader{
		queue: []kafka.Message{
			{Offset: 7, Key: []byte("k"), Headers: []kafka.Header{{Key: HeaderEventID, Value: []byte("e-7")}}},
			{Offset: 8, Key: []byte("k")},
		},
		drained: make(chan struct{}),
	}
	dlq := &fakeWriter{}

	var calls int
	handler := func(_ context.Context, msg Message) error {
		calls++
		if msg.Offset == 7 {
			return NewPermanentError("decode", errors.New("bad json"))
		}
		return nil
	}
	c := &Consumer{reader: r, dlqWriter: dlq, topic: "t", groupID: "g", maxRetries: 3, retryBackoff: time.Millisecond, handler: handler, log: logger.Discard()}

	var seen []int64
	c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		seen = append(seen, msg.Offset)
		return next(ctx, msg)
	})

	runConsumer(t, c, r)

	if calls != 2 {
		t.Errorf("handler calls = %d, want 2 (no retry on permanent error)", calls)
	}
	if len(seen) != 2 {
		t.Errorf("middleware saw %v", seen)
	}
	if len(dlq.written) != 1 || header(dlq.written[0], "dlq-consumer-group") != "g" {
		t.Fatalf("DLQ = %+v", dlq.written)
	}
	if len(r.committed) != 2 {
		t.Errorf("committed = %v, want both offsets", r.committed)
	}
}
