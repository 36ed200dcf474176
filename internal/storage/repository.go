package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pdptracker/internal/core"
	"pdptracker/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the three record collections in one SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.queries.ListRegistros(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registros: %w", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := entryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	row, err := r.queries.GetRegistro(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, records.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get registro %s: %w", id, err)
	}
	return entryFromRow(row)
}

func (r *SQLiteRepository) UpsertEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	lecturas := e.Lecturas
	if lecturas == nil {
		lecturas = core.Counts{}
	}
	raw, err := json.Marshal(lecturas)
	if err != nil {
		return fmt.Errorf("encode lecturas: %w", err)
	}
	err = r.queries.UpsertRegistro(ctx, Registro{
		ID:       e.ID,
		Mes:      e.Mes,
		Tipo:     string(e.Kind),
		Periodo:  e.Periodo,
		Fechas:   e.Fechas,
		Lecturas: string(raw),
		Ts:       e.TS,
	})
	if err != nil {
		return fmt.Errorf("upsert registro %s: %w", e.ID, err)
	}
	slog.DebugContext(ctx, "Entry saved to SQLite", "id", e.ID, "mes", e.Mes, "tipo", e.Kind)
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	if err := r.queries.DeleteRegistro(ctx, id); err != nil {
		return fmt.Errorf("delete registro %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAppState(ctx context.Context) (core.AppState, error) {
	raw, err := r.queries.GetConfig(ctx, core.AppStateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AppState{}, records.ErrNotFound
	}
	if err != nil {
		return core.AppState{}, fmt.Errorf("get config %s: %w", core.AppStateKey, err)
	}
	var st core.AppState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return core.AppState{}, fmt.Errorf("decode app state: %w", err)
	}
	return st, nil
}

func (r *SQLiteRepository) SetAppState(ctx context.Context, st core.AppState) error {
	if err := st.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode app state: %w", err)
	}
	if err := r.queries.SetConfig(ctx, core.AppStateKey, string(raw)); err != nil {
		return fmt.Errorf("set config %s: %w", core.AppStateKey, err)
	}
	return nil
}

func (r *SQLiteRepository) ListHistorical(ctx context.Context) ([]core.HistoricalRecord, error) {
	rows, err := r.queries.ListHistorico(ctx)
	if err != nil {
		return nil, fmt.Errorf("list historico: %w", err)
	}
	out := make([]core.HistoricalRecord, len(rows))
	for i, h := range rows {
		out[i] = core.HistoricalRecord{
			ID:            h.ID,
			Anio:          int(h.Anio),
			RadiologistID: h.RadiologistID,
			Nombre:        h.Nombre,
			Apodo:         h.Apodo,
			Color:         h.Color,
			Lecturas:      int(h.Lecturas),
		}
	}
	return out, nil
}

// UpsertHistorical writes all rows in one transaction.
func (r *SQLiteRepository) UpsertHistorical(ctx context.Context, rows []core.HistoricalRecord) error {
	for _, h := range rows {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("historico %s: %w", h.ID, err)
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, h := range rows {
		err := q.UpsertHistorico(ctx, Historico{
			ID:            h.ID,
			Anio:          int64(h.Anio),
			RadiologistID: h.RadiologistID,
			Nombre:        h.Nombre,
			Apodo:         h.Apodo,
			Color:         h.Color,
			Lecturas:      int64(h.Lecturas),
		})
		if err != nil {
			return fmt.Errorf("upsert historico %s: %w", h.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit historico: %w", err)
	}
	return nil
}

func entryFromRow(row Registro) (core.Entry, error) {
	e := core.Entry{
		ID:      row.ID,
		Mes:     row.Mes,
		Kind:    core.EntryKind(row.Tipo),
		Periodo: row.Periodo,
		Fechas:  row.Fechas,
		TS:      row.Ts,
	}
	if row.Lecturas != "" {
		if err := json.Unmarshal([]byte(row.Lecturas), &e.Lecturas); err != nil {
			return core.Entry{}, fmt.Errorf("decode lecturas of %s: %w", row.ID, err)
		}
	}
	if e.Lecturas == nil {
		e.Lecturas = core.Counts{}
	}
	return e, nil
}

var _ records.Store = (*SQLiteRepository)(nil)
