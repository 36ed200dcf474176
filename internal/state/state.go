// Package state holds the in-memory view of the record collections and
// applies writes optimistically: the local copy changes first, the backend
// write follows, and a failed write restores the previous local value.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/records"
)

var (
	ErrWriteFailed = errors.New("backend write failed")
	ErrMonthExists = errors.New("a month entry already exists for this label")
)

// Backend is the failure-absorbing record API the container reads and
// writes through.
type Backend interface {
	ListEntries(ctx context.Context) []core.Entry
	UpsertEntry(ctx context.Context, e core.Entry) bool
	DeleteEntry(ctx context.Context, id string) bool
	GetAppState(ctx context.Context) core.AppState
	SetAppState(ctx context.Context, st core.AppState) bool
	ListHistorical(ctx context.Context) []core.HistoricalRecord
	SeedHistoricalYear(ctx context.Context) bool
}

// EntryInput is an entry as submitted by a user, before normalization.
type EntryInput struct {
	ID       string                   `json:"id"`
	Mes      string                   `json:"mes"`
	Kind     core.EntryKind           `json:"tipo"`
	Periodo  string                   `json:"periodo"`
	Fechas   string                   `json:"fechas"`
	Lecturas map[string]core.RawCount `json:"lecturas"`
}

type Options struct {
	SeedHistorical bool
	Now            func() time.Time
	NewID          func() string
}

type Store struct {
	backend Backend
	agg     core.Aggregator
	opts    Options
	log     *log.Logger

	mu      sync.RWMutex
	entries []core.Entry
	app     core.AppState
	hist    []core.HistoricalRecord
	loaded  bool
}

func New(backend Backend, agg core.Aggregator, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		backend: backend,
		agg:     agg,
		opts:    opts,
		log:     log.ForComponent(log.ComponentState),
		entries: []core.Entry{},
		hist:    []core.HistoricalRecord{},
	}
}

// Load seeds the historical year when enabled and then reads the three
// collections concurrently.
func (s *Store) Load(ctx context.Context) error {
	return s.load(ctx, s.opts.SeedHistorical)
}

// Reload re-reads every collection without seeding.
func (s *Store) Reload(ctx context.Context) error {
	return s.load(ctx, false)
}

func (s *Store) load(ctx context.Context, seed bool) error {
	if seed {
		s.backend.SeedHistoricalYear(ctx)
	}

	var (
		entries []core.Entry
		app     core.AppState
		hist    []core.HistoricalRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries = s.backend.ListEntries(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		app = s.backend.GetAppState(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		hist = s.backend.ListHistorical(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	s.app = app
	s.hist = hist
	s.loaded = true
	s.mu.Unlock()

	s.log.Op(ctx, log.OpLoad, nil, "Records loaded",
		"entries", len(entries),
		"historical", len(hist),
		log.FieldPendientes, app.Pendientes)
	return nil
}

// Loaded reports whether Load has completed at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) Entries() []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) AppState() core.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app
}

func (s *Store) Historical() []core.HistoricalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.HistoricalRecord(nil), s.hist...)
}

func (s *Store) Roster() []core.Person {
	return append([]core.Person(nil), s.agg.Roster...)
}

// Dashboard derives every view from the current snapshot.
func (s *Store) Dashboard() core.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Summarize(s.entries, s.app, s.hist)
}

// HistoricalYears groups the historical rows by year.
func (s *Store) HistoricalYears() []core.HistoricalYear {
	return s.agg.GroupHistorical(s.Historical())
}

// BuildEntry normalizes user input into a storable entry. A month entry
// without an id reuses the id of an existing month with the same label so
// each label keeps a single month entry.
func (s *Store) BuildEntry(in EntryInput) (core.Entry, error) {
	mes := strings.TrimSpace(in.Mes)
	if mes == "" {
		return core.Entry{}, core.ErrEmptyMes
	}
	kind := in.Kind
	if kind == "" {
		kind = core.KindMonth
	}
	if !kind.Valid() {
		return core.Entry{}, core.ErrInvalidKind
	}

	id := strings.TrimSpace(in.ID)
	if id == "" && kind == core.KindMonth {
		id = s.monthID(mes)
	}
	if id == "" {
		id = s.opts.NewID()
	}

	e := core.Entry{
		ID:       id,
		Mes:      mes,
		Kind:     kind,
		Periodo:  in.Periodo,
		Fechas:   in.Fechas,
		Lecturas: core.CountsFromRaw(in.Lecturas, s.agg.Roster),
		TS:       s.opts.Now().UTC().Format(time.RFC3339Nano),
	}.Normalize()
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

func (s *Store) monthID(mes string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.IsMonth() && e.Mes == mes {
			return e.ID
		}
	}
	return ""
}

// monthOwnerLocked reports whether a month entry other than id holds mes.
func (s *Store) monthOwnerLocked(mes, id string) bool {
	for _, e := range s.entries {
		if e.IsMonth() && e.Mes == mes && e.ID != id {
			return true
		}
	}
	return false
}

// SaveEntry creates or replaces an entry. A month entry whose label belongs
// to a different month entry is rejected with ErrMonthExists. On backend
// failure the previous local value is restored and ErrWriteFailed is
// returned.
func (s *Store) SaveEntry(ctx context.Context, in EntryInput) (core.Entry, error) {
	e, err := s.BuildEntry(in)
	if err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	if e.IsMonth() && s.monthOwnerLocked(e.Mes, e.ID) {
		s.mu.Unlock()
		return core.Entry{}, fmt.Errorf("save entry %s for %q: %w", e.ID, e.Mes, ErrMonthExists)
	}
	prev, idx := s.removeLocked(e.ID)
	// The new timestamp is the latest, so the entry goes last in ts order.
	s.entries = append(s.entries, e.Clone())
	s.mu.Unlock()

	if !s.backend.UpsertEntry(ctx, e) {
		s.mu.Lock()
		s.removeLocked(e.ID)
		if idx >= 0 {
			s.insertLocked(idx, prev)
		}
		s.mu.Unlock()
		return core.Entry{}, fmt.Errorf("save entry %s: %w", e.ID, ErrWriteFailed)
	}
	return e, nil
}

// DeleteEntry removes an entry, restoring it if the backend refuses.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	prev, idx := s.removeLocked(id)
	s.mu.Unlock()
	if idx < 0 {
		return records.ErrNotFound
	}

	if !s.backend.DeleteEntry(ctx, id) {
		s.mu.Lock()
		s.insertLocked(idx, prev)
		s.mu.Unlock()
		return fmt.Errorf("delete entry %s: %w", id, ErrWriteFailed)
	}
	return nil
}

// SetPending stores the pending counter, clamping negatives to 0.
func (s *Store) SetPending(ctx context.Context, n int) (core.AppState, error) {
	if n < 0 {
		n = 0
	}
	next := core.AppState{Pendientes: n}

	s.mu.Lock()
	prev := s.app
	s.app = next
	s.mu.Unlock()

	if !s.backend.SetAppState(ctx, next) {
		s.mu.Lock()
		if s.app == next {
			s.app = prev
		}
		s.mu.Unlock()
		return prev, fmt.Errorf("save app state: %w", ErrWriteFailed)
	}
	return next, nil
}

func (s *Store) removeLocked(id string) (core.Entry, int) {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return e, i
		}
	}
	return core.Entry{}, -1
}

func (s *Store) insertLocked(idx int, e core.Entry) {
	if idx > len(s.entries) {
		idx = len(s.entries)
	}
	s.entries = append(s.entries[:idx:idx], append([]core.Entry{e}, s.entries[idx:]...)...)
}
