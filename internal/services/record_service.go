package services

import (
	"context"
	"errors"
	"fmt"

	"pdptracker/internal/amqp"
	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/records"
)

// ChangePublisher announces entry writes to downstream consumers.
type ChangePublisher interface {
	PublishEntryChanged(ctx context.Context, id string, action amqp.Action) error
}

// RecordService applies the store failure policy: reads never fail (they
// degrade to empty collections or defaults), writes report success as a
// bool, and every backend error is logged.
type RecordService struct {
	store     records.Store
	publisher ChangePublisher
	log       *log.Logger
}

func NewRecordService(store records.Store, publisher ChangePublisher) *RecordService {
	return &RecordService{
		store:     store,
		publisher: publisher,
		log:       log.ForComponent(log.ComponentRecords),
	}
}

// ListEntries returns all entries ascending by timestamp, or an empty list
// when the backend fails.
func (s *RecordService) ListEntries(ctx context.Context) []core.Entry {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		s.log.Op(ctx, log.OpList, err, "Failed to list entries")
		return []core.Entry{}
	}
	if entries == nil {
		return []core.Entry{}
	}
	return entries
}

// UpsertEntry stores e and reports whether the backend accepted it.
func (s *RecordService) UpsertEntry(ctx context.Context, e core.Entry) bool {
	if err := s.store.UpsertEntry(ctx, e); err != nil {
		s.log.Op(ctx, log.OpUpsert, err, "Failed to save entry",
			log.FieldEntryID, e.ID, log.FieldMes, e.Mes, log.FieldTipo, e.Kind)
		return false
	}
	log.NewStructuredLogger(s.log).LogEntrySaved(ctx, e.ID, e.Mes, string(e.Kind))
	s.publish(ctx, e.ID, amqp.ActionUpsert)
	return true
}

// DeleteEntry removes the entry with id and reports success.
func (s *RecordService) DeleteEntry(ctx context.Context, id string) bool {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		s.log.Op(ctx, log.OpDelete, err, "Failed to delete entry", log.FieldEntryID, id)
		return false
	}
	s.log.Op(ctx, log.OpDelete, nil, "Entry deleted", log.FieldEntryID, id)
	s.publish(ctx, id, amqp.ActionDelete)
	return true
}

// GetAppState returns the stored state, or the zero state when it is
// missing or unreadable.
func (s *RecordService) GetAppState(ctx context.Context) core.AppState {
	st, err := s.store.GetAppState(ctx)
	if errors.Is(err, records.ErrNotFound) {
		return core.AppState{}
	}
	if err != nil {
		s.log.Op(ctx, log.OpRead, err, "Failed to read app state")
		return core.AppState{}
	}
	return st
}

func (s *RecordService) SetAppState(ctx context.Context, st core.AppState) bool {
	if err := s.store.SetAppState(ctx, st); err != nil {
		s.log.Op(ctx, log.OpUpsert, err, "Failed to save app state", log.FieldPendientes, st.Pendientes)
		return false
	}
	return true
}

// ListHistorical returns historical rows by lecturas descending, or an empty
// list when the backend fails.
func (s *RecordService) ListHistorical(ctx context.Context) []core.HistoricalRecord {
	rows, err := s.store.ListHistorical(ctx)
	if err != nil {
		s.log.Op(ctx, log.OpList, err, "Failed to list historical records")
		return []core.HistoricalRecord{}
	}
	if rows == nil {
		return []core.HistoricalRecord{}
	}
	return rows
}

// SeedHistoricalYear upserts the fixed historical rows. Running it again
// leaves the store unchanged.
func (s *RecordService) SeedHistoricalYear(ctx context.Context) bool {
	rows := HistoricalSeed()
	if err := s.store.UpsertHistorical(ctx, rows); err != nil {
		s.log.Op(ctx, log.OpSeed, err, "Failed to seed historical records")
		return false
	}
	s.log.Op(ctx, log.OpSeed, nil, "Historical records seeded", log.FieldCount, len(rows))
	return true
}

// GetEntry is used by the mirror worker, which needs to distinguish a
// missing entry from a backend failure.
func (s *RecordService) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (s *RecordService) publish(ctx context.Context, id string, action amqp.Action) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryChanged(ctx, id, action); err != nil {
		// The record is already stored; the mirror catches up on the next change.
		s.log.WarnContext(ctx, "Failed to publish entry change",
			log.FieldEntryID, id,
			"action", action,
			log.FieldError, err)
	}
}
