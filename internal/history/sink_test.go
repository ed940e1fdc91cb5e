package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Create(context.Context, *Record) error {
	return errors.New("database unavailable")
}

type panickingWriter struct{}

func (panickingWriter) Create(context.Context, *Record) error {
	panic("nil pool")
}

// blockingWriter blocks every write until release is closed.
type blockingWriter struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (w *blockingWriter) Create(ctx context.Context, _ *Record) error {
	select {
	case <-w.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	w.count++
	w.mu.Unlock()
	return nil
}

func TestSink_WritesRecords(t *testing.T) {
	store := NewInMemoryStore()
	sink := NewSink(SinkConfig{Writer: store, Logger: zerolog.Nop()})

	for _, id := range []string{"a", "b", "c"} {
		sink.Record(&Record{RequestID: id, Status: StatusSuccess})
	}
	sink.Record(nil)

	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, int64(3), sink.Stats().Written)
}

func TestSink_WriteFailuresAreContained(t *testing.T) {
	for name, writer := range map[string]Writer{"error": failingWriter{}, "panic": panickingWriter{}} {
		t.Run(name, func(t *testing.T) {
			sink := NewSink(SinkConfig{Writer: writer, Workers: 1, Logger: zerolog.Nop()})

			assert.NotPanics(t, func() {
				sink.Record(&Record{RequestID: "req-1"})
				sink.Record(&Record{RequestID: "req-2"})
			})

			require.NoError(t, sink.Close(context.Background()))
			assert.Equal(t, int64(2), sink.Stats().Failed)
		})
	}
}

func TestSink_FullQueueDropsWithoutBlocking(t *testing.T) {
	writer := &blockingWriter{release: make(chan struct{})}
	sink := NewSink(SinkConfig{Writer: writer, QueueSize: 1, Workers: 1, Logger: zerolog.Nop()})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			sink.Record(&Record{RequestID: string(rune('a' + i))})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(writer.release)
	require.NoError(t, sink.Close(context.Background()))

	stats := sink.Stats()
	assert.Positive(t, stats.Dropped)
	assert.Equal(t, int64(10), stats.Dropped+stats.Written)
}

func TestSink_RecordAfterClose(t *testing.T) {
	sink := NewSink(SinkConfig{Writer: NewInMemoryStore(), Logger: zerolog.Nop()})
	require.NoError(t, sink.Close(context.Background()))
	require.NoError(t, sink.Close(context.Background()), "close is idempotent")

	assert.NotPanics(t, func() { sink.Record(&Record{RequestID: "late"}) })
	assert.Equal(t, int64(1), sink.Stats().Dropped)
}

func TestSink_CloseHonoursContext(t *testing.T) {
	writer := &blockingWriter{release: make(chan struct{})}
	sink := NewSink(SinkConfig{Writer: writer, Workers: 1, WriteTimeout: time.Minute, Logger: zerolog.Nop()})
	sink.Record(&Record{RequestID: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sink.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(writer.release)
}
