// Package memory is an in-process record store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"pdptracker/internal/core"
	"pdptracker/internal/records"
)

type Store struct {
	mu      sync.Mutex
	entries map[string]core.Entry
	order   []string
	state   *core.AppState
	hist    map[string]core.HistoricalRecord
}

func New() *Store {
	return &Store{
		entries: make(map[string]core.Entry),
		hist:    make(map[string]core.HistoricalRecord),
	}
}

// NewWithEntries returns a store pre-filled with entries in the given order.
func NewWithEntries(entries ...core.Entry) *Store {
	s := New()
	for _, e := range entries {
		s.put(e)
	}
	return s
}

func (s *Store) put(e core.Entry) {
	if _, ok := s.entries[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e.Clone()
}

func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, records.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *Store) UpsertEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(e)
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) GetAppState(_ context.Context) (core.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return core.AppState{}, records.ErrNotFound
	}
	return *s.state, nil
}

func (s *Store) SetAppState(_ context.Context, st core.AppState) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &st
	return nil
}

func (s *Store) ListHistorical(_ context.Context) ([]core.HistoricalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.HistoricalRecord, 0, len(s.hist))
	for _, h := range s.hist {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lecturas != out[j].Lecturas {
			return out[i].Lecturas > out[j].Lecturas
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertHistorical(_ context.Context, rows []core.HistoricalRecord) error {
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.hist[r.ID] = r
	}
	return nil
}

var _ records.Store = (*Store)(nil)
