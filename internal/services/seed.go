package services

import (
	"fmt"

	"pdptracker/internal/core"
)

// SeedYear is the year whose per-person totals were imported once.
const SeedYear = 2024

type seedRow struct {
	radiologist string
	nombre      string
	apodo       string
	color       string
	lecturas    int
}

var seedRows = []seedRow{
	{"espinosa", "Alexis Espinosa Pizarro", "Alexis", "#c4956a", 7186},
	{"fernandez", "José Mª Fernández Peña", "Chema", "#6a9ec4", 1892},
	{"aguilar", "Natalia Aguilar Pérez", "Natalia", "#c47a9e", 2189},
	{"cartier", "Germaine Cartier Velázquez", "Germaine", "#9a7ec4", 1},
	{"vazquez", "Jorge Vázquez Alfageme", "Jorge", "#8bc49a", 1554},
}

// HistoricalSeed returns the imported rows with ids "<year>-<radiologist>".
func HistoricalSeed() []core.HistoricalRecord {
	out := make([]core.HistoricalRecord, len(seedRows))
	for i, r := range seedRows {
		out[i] = core.HistoricalRecord{
			ID:            fmt.Sprintf("%d-%s", SeedYear, r.radiologist),
			Anio:          SeedYear,
			RadiologistID: r.radiologist,
			Nombre:        r.nombre,
			Apodo:         r.apodo,
			Color:         r.color,
			Lecturas:      r.lecturas,
		}
	}
	return out
}
