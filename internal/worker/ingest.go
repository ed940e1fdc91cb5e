package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/history"
)

// Disposition tells the subscriber what to do with a message.
type Disposition int

// Message dispositions.
const (
	Ack Disposition = iota
	Nack
)

func (d Disposition) String() string {
	if d == Nack {
		return "nack"
	}
	return "ack"
}

var errMalformed = errors.New("malformed history message")

// HistoryIngestor persists history records received from the message bus.
type HistoryIngestor struct {
	writer history.Writer
	config IngestConfig
	logger zerolog.Logger
}

// NewHistoryIngestor creates an ingestor writing to w.
func NewHistoryIngestor(w history.Writer, cfg IngestConfig, logger zerolog.Logger) *HistoryIngestor {
	return &HistoryIngestor{
		writer: w,
		config: cfg.withDefaults(),
		logger: logger,
	}
}

// Handle decodes and stores one message. Malformed payloads are acked so
// they are not redelivered; store failures that outlast the retry budget are
// nacked.
func (i *HistoryIngestor) Handle(ctx context.Context, data []byte) Disposition {
	rec, err := decodeRecord(data)
	if err != nil {
		i.logger.Error().Err(err).Int("bytes", len(data)).Msg("dropping malformed history message")
		return Ack
	}

	logger := i.logger.With().Str("request_id", rec.RequestID).Logger()

	attempts := 0
	operation := func() error {
		attempts++
		writeCtx, cancel := context.WithTimeout(ctx, i.config.WriteTimeout)
		defer cancel()
		return i.writer.Create(writeCtx, rec)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = i.config.InitialInterval
	bo.MaxInterval = i.config.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, i.config.MaxAttempts-1), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempts).Dur("retry_in", wait).Msg("history write failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("history write failed")
		return Nack
	}

	logger.Debug().Int("attempts", attempts).Msg("history record stored")
	return Ack
}

func decodeRecord(data []byte) (*history.Record, error) {
	var rec history.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if rec.RequestID == "" {
		return nil, fmt.Errorf("%w: missing request_id", errMalformed)
	}
	switch rec.Status {
	case history.StatusSuccess, history.StatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", errMalformed, rec.Status)
	}
	return &rec, nil
}
