package extraction

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/provider"
)

// ServiceConfig holds configuration for the extraction service.
type ServiceConfig struct {
	// Provider is the extraction backend (required).
	Provider Provider

	// Timeout is the per-call deadline (default: 5 seconds).
	Timeout time.Duration

	// Metrics receives per-call latency (optional).
	Metrics provider.Recorder

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service applies the per-call deadline and error normalization around an
// extraction Provider. It never retries.
type Service struct {
	provider Provider
	timeout  time.Duration
	metrics  provider.Recorder
	logger   zerolog.Logger
}

// NewService creates a new extraction service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		provider: cfg.Provider,
		timeout:  timeout,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// ExtractRoute extracts route endpoints from text. Errors are always *provider.Error.
func (s *Service) ExtractRoute(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, provider.NewError(s.provider.Name(), provider.CodeInvalidArgument, "text is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.provider.ExtractRoute(ctx, text)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "extract_route", duration, err)
	}

	if err != nil {
		pe := provider.Normalize(ctx, s.provider.Name(), err)
		s.logger.Warn().
			Err(pe).
			Str("code", string(pe.Code)).
			Dur("latency", duration).
			Msg("route extraction failed")
		return nil, pe
	}

	return result, nil
}
