package worker

import (
	"context"
	"errors"
	"fmt"

	"pdptracker/internal/amqp"
	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/records"
	"pdptracker/internal/sheets"
)

// EntrySource is the authoritative record store the mirror follows. It
// reports read failures so that a failed read never reaches the mirror as an
// empty store.
type EntrySource interface {
	GetEntry(ctx context.Context, id string) (core.Entry, error)
	ListEntries(ctx context.Context) ([]core.Entry, error)
}

// MirrorWorker applies entry change events to the spreadsheet mirror.
type MirrorWorker struct {
	source    EntrySource
	mirror    sheets.EntryMirror
	rebuilder sheets.MirrorRebuilder
	log       *log.Logger
}

// NewMirrorWorker creates a worker. rebuilder may be nil, in which case
// Rebuild is a no-op.
func NewMirrorWorker(source EntrySource, mirror sheets.EntryMirror, rebuilder sheets.MirrorRebuilder) *MirrorWorker {
	return &MirrorWorker{
		source:    source,
		mirror:    mirror,
		rebuilder: rebuilder,
		log:       log.ForComponent(log.ComponentWorker),
	}
}

// HandleEntryChanged reads the current entry and writes or removes its row.
// An upsert for an entry that no longer exists removes the row, so events
// delivered out of order converge on the store.
func (w *MirrorWorker) HandleEntryChanged(ctx context.Context, msg *amqp.EntryChangedMessage) error {
	w.log.InfoContext(ctx, "Processing entry change",
		log.FieldEntryID, msg.ID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionDelete:
		return w.deleteRow(ctx, msg.ID)
	case amqp.ActionUpsert:
		e, err := w.source.GetEntry(ctx, msg.ID)
		if errors.Is(err, records.ErrNotFound) {
			w.log.WarnContext(ctx, "Entry vanished before mirroring, removing row", log.FieldEntryID, msg.ID)
			return w.deleteRow(ctx, msg.ID)
		}
		if err != nil {
			return fmt.Errorf("get entry from store: %w", err)
		}
		ref, err := w.mirror.UpsertEntry(ctx, e)
		if err != nil {
			return fmt.Errorf("mirror entry: %w", err)
		}
		w.log.Op(ctx, log.OpMirror, nil, "Mirrored entry",
			log.FieldEntryID, e.ID,
			log.FieldMes, e.Mes,
			"sheets_ref", ref)
		return nil
	default:
		return fmt.Errorf("%w: %q", amqp.ErrInvalidAction, msg.Action)
	}
}

func (w *MirrorWorker) deleteRow(ctx context.Context, id string) error {
	if err := w.mirror.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete mirrored entry: %w", err)
	}
	w.log.Op(ctx, log.OpDelete, nil, "Removed mirrored entry", log.FieldEntryID, id)
	return nil
}

// Rebuild rewrites the mirror from the store. It recovers from events lost
// while the worker was down. The mirror is left untouched when the store
// cannot be listed.
func (w *MirrorWorker) Rebuild(ctx context.Context) error {
	if w.rebuilder == nil {
		return nil
	}
	entries, err := w.source.ListEntries(ctx)
	if err != nil {
		w.log.Op(ctx, log.OpMirror, err, "Mirror rebuild skipped, store unreadable")
		return fmt.Errorf("list entries for rebuild: %w", err)
	}
	if err := w.rebuilder.ReplaceAll(ctx, entries); err != nil {
		w.log.Op(ctx, log.OpMirror, err, "Mirror rebuild failed")
		return fmt.Errorf("rebuild mirror: %w", err)
	}
	w.log.Op(ctx, log.OpMirror, nil, "Mirror rebuilt", log.FieldCount, len(entries))
	return nil
}
