package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	// KindMonth marks an entry holding the authoritative totals of a whole month.
	KindMonth EntryKind = "mes"
	// KindSub marks a breakdown entry for a time slice inside a month.
	KindSub EntryKind = "sub"
)

// AppStateKey is the fixed key of the singleton application-state record.
const AppStateKey = "app_state"

type (
	EntryKind string

	// Counts maps a roster person id to the number of readings. Missing keys mean zero.
	Counts map[string]int

	// Entry is one data point: either a month aggregate or a sub-period of a month.
	Entry struct {
		ID       string    `json:"id"`
		Mes      string    `json:"mes"`
		Kind     EntryKind `json:"tipo"`
		Periodo  string    `json:"periodo"`
		Fechas   string    `json:"fechas"`
		Lecturas Counts    `json:"lecturas"`
		TS       string    `json:"ts"`
	}

	// AppState is the singleton record stored under AppStateKey.
	AppState struct {
		Pendientes int `json:"pendientes"`
	}

	// HistoricalRecord is an imported per-person, per-year total.
	HistoricalRecord struct {
		ID            string `json:"id"`
		Anio          int    `json:"anio"`
		RadiologistID string `json:"radiologist_id"`
		Nombre        string `json:"nombre"`
		Apodo         string `json:"apodo"`
		Color         string `json:"color"`
		Lecturas      int    `json:"lecturas"`
	}

	// Person is a roster member. The roster is configuration, never persisted.
	Person struct {
		ID       string `json:"id" yaml:"id"`
		Nombre   string `json:"nombre" yaml:"nombre"`
		Corto    string `json:"corto" yaml:"corto"`
		Apodo    string `json:"apodo" yaml:"apodo"`
		Color    string `json:"color" yaml:"color"`
		Gradient string `json:"bg" yaml:"gradient"`
	}
)

var (
	ErrEmptyID        = errors.New("empty id")
	ErrEmptyMes       = errors.New("empty month label")
	ErrInvalidKind    = errors.New("invalid entry kind")
	ErrPeriodoOnMonth = errors.New("month entry cannot carry a sub-period label")
	ErrNegativeCount  = errors.New("negative reading count")
	ErrNegativeQueue  = errors.New("negative pending counter")
)

// Valid reports whether k is one of the two known kinds.
func (k EntryKind) Valid() bool {
	return k == KindMonth || k == KindSub
}

// Get returns the count for id, zero when absent.
func (c Counts) Get(id string) int {
	if c == nil {
		return 0
	}
	return c[id]
}

// Clone returns an independent copy of c.
func (c Counts) Clone() Counts {
	if c == nil {
		return nil
	}
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (e Entry) IsMonth() bool { return e.Kind == KindMonth }

func (e Entry) IsSub() bool { return e.Kind == KindSub }

// Clone returns a copy of e that shares no map with the original.
func (e Entry) Clone() Entry {
	e.Lecturas = e.Lecturas.Clone()
	return e
}

// Normalize trims the free-text labels and clears fields that do not belong
// to the entry's kind.
func (e Entry) Normalize() Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.Mes = strings.TrimSpace(e.Mes)
	e.Periodo = strings.TrimSpace(e.Periodo)
	e.Fechas = strings.TrimSpace(e.Fechas)
	if e.Kind == KindMonth {
		e.Periodo = ""
	}
	e.Lecturas = e.Lecturas.Clone()
	if e.Lecturas == nil {
		e.Lecturas = Counts{}
	}
	return e
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.Mes) == "" {
		return ErrEmptyMes
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if e.Kind == KindMonth && e.Periodo != "" {
		return ErrPeriodoOnMonth
	}
	for _, v := range e.Lecturas {
		if v < 0 {
			return ErrNegativeCount
		}
	}
	return nil
}

func (s AppState) Validate() error {
	if s.Pendientes < 0 {
		return ErrNegativeQueue
	}
	return nil
}

func (h HistoricalRecord) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return ErrEmptyID
	}
	if h.Lecturas < 0 {
		return ErrNegativeCount
	}
	return nil
}

// RawCount is a count as typed by a user. It accepts a JSON number or a
// JSON string and is interpreted with ParseCount.
type RawCount string

func (r *RawCount) UnmarshalJSON(b []byte) error {
	switch {
	case len(b) == 0 || string(b) == "null":
		*r = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RawCount(s)
	default:
		*r = RawCount(b)
	}
	return nil
}

// Int returns the lenient non-negative value of r.
func (r RawCount) Int() int {
	return ParseCount(string(r))
}

// CountsFromRaw builds the counts of every roster member from raw input.
// Missing and invalid values become 0; keys outside the roster are dropped.
func CountsFromRaw(raw map[string]RawCount, roster []Person) Counts {
	out := make(Counts, len(roster))
	for _, p := range roster {
		out[p.ID] = raw[p.ID].Int()
	}
	return out
}
