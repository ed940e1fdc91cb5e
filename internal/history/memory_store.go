package history

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is an in-memory implementation of Store.
// This is intended for testing and local development. Production should use
// PostgresStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	byReq   map[string]*Record
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byReq: make(map[string]*Record),
	}
}

// Create stores a copy of rec. Duplicate request ids are ignored.
func (s *InMemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byReq[rec.RequestID]; ok {
		return nil
	}

	prepare(rec)
	cpy := *rec
	s.records = append(s.records, &cpy)
	s.byReq[cpy.RequestID] = &cpy
	return nil
}

// RecordSelection sets the selected route type on the caller's record.
func (s *InMemoryStore) RecordSelection(_ context.Context, requestID, userID, routeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byReq[requestID]
	if !ok || rec.UserID == "" || rec.UserID != userID {
		return ErrRecordNotFound
	}
	rec.SelectedRouteType = routeType
	return nil
}

// QueryRecentDestinations returns recent named destinations, newest first.
func (s *InMemoryStore) QueryRecentDestinations(_ context.Context, limit int) ([]Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Destination
	for _, rec := range s.newestFirst() {
		if len(out) >= limit {
			break
		}
		if rec.DestinationName == "" || rec.DestinationLat == nil || rec.DestinationLon == nil {
			continue
		}
		out = append(out, Destination{
			Name: rec.DestinationName,
			Lat:  *rec.DestinationLat,
			Lon:  *rec.DestinationLon,
		})
	}
	return out, nil
}

// ListByUser returns copies of the user's records, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.newestFirst() {
		if len(out) >= limit {
			break
		}
		if rec.UserID != userID {
			continue
		}
		cpy := *rec
		out = append(out, &cpy)
	}
	return out, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns a copy of the record for requestID.
func (s *InMemoryStore) Get(requestID string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byReq[requestID]
	if !ok {
		return nil, false
	}
	cpy := *rec
	return &cpy, true
}

// newestFirst orders by creation time, latest insert first on ties.
// Callers must hold the lock.
func (s *InMemoryStore) newestFirst() []*Record {
	out := make([]*Record, len(s.records))
	for i, rec := range s.records {
		out[len(s.records)-1-i] = rec
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
