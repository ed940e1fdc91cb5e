// Package worker provides background history ingestion for wslny.
package worker

import (
	"time"
)

// IngestConfig holds configuration for history ingestion.
type IngestConfig struct {
	// MaxAttempts bounds store writes per message.
	// Default: 4
	MaxAttempts uint64

	// InitialInterval is the first retry backoff interval.
	// Default: 200 milliseconds
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// WriteTimeout bounds each store write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxOutstandingMessages limits unacknowledged messages held by the
	// subscriber.
	// Default: 10
	MaxOutstandingMessages int
}

// DefaultIngestConfig returns the default ingestion configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		MaxAttempts:            4,
		InitialInterval:        200 * time.Millisecond,
		MaxInterval:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		MaxOutstandingMessages: 10,
	}
}

func (c IngestConfig) withDefaults() IngestConfig {
	def := DefaultIngestConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxOutstandingMessages <= 0 {
		c.MaxOutstandingMessages = def.MaxOutstandingMessages
	}
	return c
}
