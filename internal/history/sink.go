package history

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SinkConfig holds configuration for the async sink.
type SinkConfig struct {
	// Writer persists records (required).
	Writer Writer

	// QueueSize bounds the number of pending records (default: 256).
	QueueSize int

	// Workers is the number of concurrent writers (default: 2).
	Workers int

	// WriteTimeout bounds each write (default: 5 seconds).
	WriteTimeout time.Duration

	// Logger for sink operations.
	Logger zerolog.Logger
}

// SinkStats counts sink outcomes.
type SinkStats struct {
	Written int64
	Failed  int64
	Dropped int64
}

// Sink writes records in the background so that persistence failures never
// reach the caller. Record never blocks: when the queue is full the record is
// dropped and logged.
type Sink struct {
	writer  Writer
	timeout time.Duration
	logger  zerolog.Logger
	queue   chan *Record
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewSink creates a sink and starts its workers.
func NewSink(cfg SinkConfig) *Sink {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &Sink{
		writer:  cfg.Writer,
		timeout: timeout,
		logger:  cfg.Logger,
		queue:   make(chan *Record, queueSize),
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for rec := range s.queue {
				s.write(rec)
			}
		}()
	}

	return s
}

// Record enqueues rec for writing.
func (s *Sink) Record(rec *Record) {
	if rec == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		s.logger.Error().
			Str("request_id", rec.RequestID).
			Msg("history sink closed, dropping record")
		return
	}

	select {
	case s.queue <- rec:
	default:
		s.dropped.Add(1)
		s.logger.Error().
			Str("request_id", rec.RequestID).
			Int("queue_size", cap(s.queue)).
			Msg("history queue full, dropping record")
	}
}

// Close stops accepting records and waits for pending writes, or until ctx
// is done.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining history sink: %w", ctx.Err())
	}
}

// Stats returns the sink counters.
func (s *Sink) Stats() SinkStats {
	return SinkStats{
		Written: s.written.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}

func (s *Sink) write(rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.logger.Error().
				Interface("panic", r).
				Str("request_id", rec.RequestID).
				Msg("history write panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.writer.Create(ctx, rec); err != nil {
		s.failed.Add(1)
		s.logger.Error().
			Err(err).
			Str("request_id", rec.RequestID).
			Str("status", string(rec.Status)).
			Msg("failed to write history record")
		return
	}

	s.written.Add(1)
}
