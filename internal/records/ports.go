// Package records defines the persistence ports for the three record
// collections: entries, the app-state singleton and historical rows.
package records

import (
	"context"
	"errors"

	"pdptracker/internal/core"
)

var ErrNotFound = errors.New("record not found")

type (
	EntryRepository interface {
		// ListEntries returns every entry ordered by timestamp ascending.
		ListEntries(ctx context.Context) ([]core.Entry, error)
		GetEntry(ctx context.Context, id string) (core.Entry, error)
		// UpsertEntry creates or fully replaces the entry with e.ID.
		UpsertEntry(ctx context.Context, e core.Entry) error
		// DeleteEntry removes the entry. Deleting a missing id is not an error.
		DeleteEntry(ctx context.Context, id string) error
	}

	StateRepository interface {
		// GetAppState returns ErrNotFound when the singleton was never written.
		GetAppState(ctx context.Context) (core.AppState, error)
		SetAppState(ctx context.Context, s core.AppState) error
	}

	HistoricalRepository interface {
		// ListHistorical returns every row ordered by lecturas descending.
		ListHistorical(ctx context.Context) ([]core.HistoricalRecord, error)
		UpsertHistorical(ctx context.Context, rows []core.HistoricalRecord) error
	}

	// Store is the full record backend.
	Store interface {
		EntryRepository
		StateRepository
		HistoricalRepository
	}
)
