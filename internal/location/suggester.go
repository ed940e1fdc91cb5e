package location

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
)

const (
	// DefaultSuggestionLimit is how many recent destinations are considered.
	DefaultSuggestionLimit = 300

	// DefaultMinScore is the lowest score accepted as a suggestion.
	DefaultMinScore = 0.35

	containmentBonus = 0.2
)

// Suggestion is a past destination similar to the searched text.
type Suggestion struct {
	Name  string
	Point geo.Point

	// Score is the raw similarity, which may exceed 1.
	Score float64

	// Confidence is Score capped at 1 and rounded to two decimals.
	Confidence float64
}

// ScoreFunc scores the similarity of two normalized strings.
type ScoreFunc func(query, candidate string) float64

// SuggesterConfig holds configuration for the suggester.
type SuggesterConfig struct {
	// Source provides recent destinations (required).
	Source history.DestinationSource

	// Limit is the number of recent destinations considered (default: 300).
	Limit int

	// MinScore is the acceptance threshold (default: 0.35).
	MinScore float64

	// Score overrides the similarity function (default: Similarity).
	Score ScoreFunc

	// Logger for suggester operations.
	Logger zerolog.Logger
}

// Suggester finds the past destination closest to a text query.
type Suggester struct {
	source   history.DestinationSource
	limit    int
	minScore float64
	score    ScoreFunc
	logger   zerolog.Logger
}

// NewSuggester creates a new suggester.
func NewSuggester(cfg SuggesterConfig) *Suggester {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	score := cfg.Score
	if score == nil {
		score = Similarity
	}

	return &Suggester{
		source:   cfg.Source,
		limit:    limit,
		minScore: minScore,
		score:    score,
		logger:   cfg.Logger,
	}
}

// Suggest returns the best-scoring past destination for text, or nil when
// none scores at least the threshold.
func (s *Suggester) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	query := Normalize(text)
	if query == "" || s.source == nil {
		return nil, nil
	}

	destinations, err := s.source.QueryRecentDestinations(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent destinations: %w", err)
	}

	var (
		best      *history.Destination
		bestScore float64
		seen      = make(map[string]struct{}, len(destinations))
	)

	for i := range destinations {
		candidate := Normalize(destinations[i].Name)
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		if score := s.score(query, candidate); score > bestScore {
			bestScore = score
			best = &destinations[i]
		}
	}

	if best == nil || bestScore < s.minScore {
		s.logger.Debug().
			Str("query", query).
			Int("candidates", len(seen)).
			Float64("best_score", bestScore).
			Msg("no destination suggestion")
		return nil, nil
	}

	return &Suggestion{
		Name:       best.Name,
		Point:      geo.Point{Lat: best.Lat, Lon: best.Lon},
		Score:      bestScore,
		Confidence: math.Round(math.Min(bestScore, 1)*100) / 100,
	}, nil
}

// Normalize trims and lower-cases text for comparison.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Similarity is the matching-blocks ratio of two strings compared rune by
// rune, plus a bonus when either contains the other.
func Similarity(query, candidate string) float64 {
	score := difflib.NewMatcher(runes(query), runes(candidate)).Ratio()
	if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
		score += containmentBonus
	}
	return score
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
