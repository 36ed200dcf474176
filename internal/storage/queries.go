package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Registro struct {
	ID       string
	Mes      string
	Tipo     string
	Periodo  string
	Fechas   string
	Lecturas string
	Ts       string
}

type Historico struct {
	ID            string
	Anio          int64
	RadiologistID string
	Nombre        string
	Apodo         string
	Color         string
	Lecturas      int64
}

const listRegistros = `-- name: ListRegistros :many
SELECT id, mes, tipo, periodo, fechas, lecturas, ts FROM registros
ORDER BY ts ASC, rowid ASC
`

func (q *Queries) ListRegistros(ctx context.Context) ([]Registro, error) {
	rows, err := q.db.QueryContext(ctx, listRegistros)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Registro
	for rows.Next() {
		var i Registro
		if err := rows.Scan(&i.ID, &i.Mes, &i.Tipo, &i.Periodo, &i.Fechas, &i.Lecturas, &i.Ts); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRegistro = `-- name: GetRegistro :one
SELECT id, mes, tipo, periodo, fechas, lecturas, ts FROM registros
WHERE id = ?
`

func (q *Queries) GetRegistro(ctx context.Context, id string) (Registro, error) {
	row := q.db.QueryRowContext(ctx, getRegistro, id)
	var i Registro
	err := row.Scan(&i.ID, &i.Mes, &i.Tipo, &i.Periodo, &i.Fechas, &i.Lecturas, &i.Ts)
	return i, err
}

const upsertRegistro = `-- name: UpsertRegistro :exec
INSERT INTO registros (id, mes, tipo, periodo, fechas, lecturas, ts)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    mes = excluded.mes,
    tipo = excluded.tipo,
    periodo = excluded.periodo,
    fechas = excluded.fechas,
    lecturas = excluded.lecturas,
    ts = excluded.ts
`

func (q *Queries) UpsertRegistro(ctx context.Context, arg Registro) error {
	_, err := q.db.ExecContext(ctx, upsertRegistro,
		arg.ID,
		arg.Mes,
		arg.Tipo,
		arg.Periodo,
		arg.Fechas,
		arg.Lecturas,
		arg.Ts,
	)
	return err
}

const deleteRegistro = `-- name: DeleteRegistro :exec
DELETE FROM registros WHERE id = ?
`

func (q *Queries) DeleteRegistro(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteRegistro, id)
	return err
}

const getConfig = `-- name: GetConfig :one
SELECT value FROM config WHERE key = ?
`

func (q *Queries) GetConfig(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getConfig, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const setConfig = `-- name: SetConfig :exec
INSERT INTO config (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) SetConfig(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, setConfig, key, value)
	return err
}

const listHistorico = `-- name: ListHistorico :many
SELECT id, anio, radiologist_id, nombre, apodo, color, lecturas FROM historico
ORDER BY lecturas DESC, id ASC
`

func (q *Queries) ListHistorico(ctx context.Context) ([]Historico, error) {
	rows, err := q.db.QueryContext(ctx, listHistorico)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Historico
	for rows.Next() {
		var i Historico
		if err := rows.Scan(&i.ID, &i.Anio, &i.RadiologistID, &i.Nombre, &i.Apodo, &i.Color, &i.Lecturas); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertHistorico = `-- name: UpsertHistorico :exec
INSERT INTO historico (id, anio, radiologist_id, nombre, apodo, color, lecturas)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    anio = excluded.anio,
    radiologist_id = excluded.radiologist_id,
    nombre = excluded.nombre,
    apodo = excluded.apodo,
    color = excluded.color,
    lecturas = excluded.lecturas
`

func (q *Queries) UpsertHistorico(ctx context.Context, arg Historico) error {
	_, err := q.db.ExecContext(ctx, upsertHistorico,
		arg.ID,
		arg.Anio,
		arg.RadiologistID,
		arg.Nombre,
		arg.Apodo,
		arg.Color,
		arg.Lecturas,
	)
	return err
}
