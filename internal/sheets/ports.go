package sheets

import (
	"context"

	"pdptracker/internal/core"
)

// Ports for the spreadsheet mirror.
type (
	// EntryMirror keeps one spreadsheet row per entry, keyed by entry id.
	EntryMirror interface {
		UpsertEntry(ctx context.Context, e core.Entry) (rowRef string, err error)
		// DeleteEntry removes the row for id. A missing row is not an error.
		DeleteEntry(ctx context.Context, id string) error
	}

	// MirrorRebuilder rewrites the whole mirror from the authoritative list.
	MirrorRebuilder interface {
		ReplaceAll(ctx context.Context, entries []core.Entry) error
	}
)
