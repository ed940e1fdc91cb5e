package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wslny/wslny/internal/apperr"
	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/preference"
)

func strPtr(s string) *string { return &s }

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	return e.Kind
}

func TestParse_MapMode(t *testing.T) {
	p, err := Parse(Request{
		Origin:      geo.NewRawPoint(30.0444, 31.2357),
		Destination: &geo.RawPoint{Lat: "30.0131", Lon: 31.2089},
		Filter:      2,
	})
	require.NoError(t, err)

	assert.Equal(t, history.SourceMap, p.Source)
	assert.Equal(t, preference.Fastest, p.Filter)
	assert.Equal(t, geo.Point{Lat: 30.0444, Lon: 31.2357}, p.Origin)
	assert.Equal(t, geo.Point{Lat: 30.0131, Lon: 31.2089}, p.Destination)
}

func TestParse_TextMode(t *testing.T) {
	p, err := Parse(Request{
		Text:             strPtr("  from Tahrir to Maadi "),
		CurrentLatitude:  "30.1",
		CurrentLongitude: "31.3",
		Filter:           "bogus",
	})
	require.NoError(t, err)

	assert.Equal(t, history.SourceText, p.Source)
	assert.Equal(t, "from Tahrir to Maadi", p.Text)
	assert.Equal(t, preference.Optimal, p.Filter, "lenient parsing falls back to optimal")
	require.NotNil(t, p.CurrentLocation)
	assert.Equal(t, geo.Point{Lat: 30.1, Lon: 31.3}, *p.CurrentLocation)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantKind apperr.Kind
		wantSrc  history.Source
	}{
		{
			name: "text and coordinates",
			req: Request{
				Text:        strPtr("to Maadi"),
				Origin:      geo.NewRawPoint(30, 31),
				Destination: geo.NewRawPoint(30.1, 31.1),
			},
			wantKind: apperr.KindInvalidRequestMode,
			wantSrc:  history.SourceText,
		},
		{
			name:     "latitude out of range",
			req:      Request{Origin: geo.NewRawPoint(91, 31), Destination: geo.NewRawPoint(30, 31)},
			wantKind: apperr.KindInvalidCoordinates,
			wantSrc:  history.SourceMap,
		},
		{
			name:     "non-numeric destination",
			req:      Request{Origin: geo.NewRawPoint(30, 31), Destination: &geo.RawPoint{Lat: "north", Lon: 31}},
			wantKind: apperr.KindInvalidCoordinates,
			wantSrc:  history.SourceMap,
		},
		{
			name:     "blank text",
			req:      Request{Text: strPtr("   ")},
			wantKind: apperr.KindInvalidRequestBody,
			wantSrc:  history.SourceText,
		},
		{
			name:     "origin only",
			req:      Request{Origin: geo.NewRawPoint(30, 31)},
			wantKind: apperr.KindInvalidRequestBody,
			wantSrc:  history.SourceText,
		},
		{
			name:     "empty body",
			req:      Request{},
			wantKind: apperr.KindInvalidRequestBody,
			wantSrc:  history.SourceText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, kindOf(t, err))
			assert.Equal(t, tt.wantSrc, p.Source)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestRequest_Source(t *testing.T) {
	origin := geo.NewRawPoint(30.0444, 31.2357)
	destination := geo.NewRawPoint(30.0131, 31.2089)
	blank := "   "
	text := "to Giza"

	tests := []struct {
		name string
		req  Request
		want history.Source
	}{
		{"coordinates", Request{Origin: origin, Destination: destination}, history.SourceMap},
		{"coordinates with blank text", Request{Origin: origin, Destination: destination, Text: &blank}, history.SourceMap},
		{"coordinates with text", Request{Origin: origin, Destination: destination, Text: &text}, history.SourceText},
		{"origin only", Request{Origin: origin}, history.SourceText},
		{"empty", Request{}, history.SourceText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Source())
		})
	}
}

func TestParse_BlankTextKeptForHistory(t *testing.T) {
	p, err := Parse(Request{Text: strPtr("  ")})
	require.Error(t, err)
	assert.Equal(t, "  ", p.Text)
}

func TestParseStrict(t *testing.T) {
	p, err := ParseStrict(Request{Text: strPtr("to Maadi"), Filter: "metro_only"})
	require.NoError(t, err)
	assert.Equal(t, preference.MetroOnly, p.Filter)

	p, err = ParseStrict(Request{Text: strPtr("to Maadi")})
	require.NoError(t, err)
	assert.Equal(t, preference.Optimal, p.Filter)

	p, err = ParseStrict(Request{Text: strPtr(" to Maadi "), Filter: 9})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFilter, kindOf(t, err))
	assert.Equal(t, "to Maadi", p.Text)
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(apperr.ExtractionEmpty()))
	assert.True(t, IsValidationError(apperr.InvalidFilter("x")))
}
