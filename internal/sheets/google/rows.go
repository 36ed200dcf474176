package google

import (
	"fmt"
	"strings"

	"pdptracker/internal/core"
)

// Header lists the mirror columns: fixed entry fields, one column per
// roster member, then the row total and timestamp.
func Header(roster []core.Person) []any {
	out := []any{"id", "mes", "tipo", "periodo", "fechas"}
	for _, p := range roster {
		out = append(out, p.ID)
	}
	return append(out, "total", "ts")
}

// RowValues renders e in Header order.
func RowValues(e core.Entry, roster []core.Person, agg core.Aggregator) []any {
	out := []any{e.ID, e.Mes, string(e.Kind), e.Periodo, e.Fechas}
	for _, p := range roster {
		out = append(out, e.Lecturas.Get(p.ID))
	}
	return append(out, agg.EntryTotal(e), e.TS)
}

// findRowByID returns the 1-based row whose first cell equals id, skipping
// the header row, or 0 when absent.
func findRowByID(values [][]any, id string) int {
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// a1Range quotes the sheet title for A1 notation.
func a1Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}
