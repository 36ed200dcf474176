package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceForYear(t *testing.T) {
	cases := []struct {
		year int
		want string
	}{
		{2023, "3.25"},
		{2024, "3.25"},
		{2025, "4.93"},
		{2030, "4.93"},
	}
	for _, tc := range cases {
		if got := PriceForYear(tc.year); !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("PriceForYear(%d) = %s, want %s", tc.year, got, tc.want)
		}
	}
}

func TestGross(t *testing.T) {
	got := Gross(10, DefaultPrices.Current)
	if !got.Equal(decimal.RequireFromString("49.3")) {
		t.Fatalf("10 x 4.93 = %s", got)
	}
	if FormatEuros(Gross(7186, PriceForYear(2024))) != "23.354,50 €" {
		t.Fatalf("unexpected 2024 gross label %q", FormatEuros(Gross(7186, PriceForYear(2024))))
	}
}

func TestLevelFor(t *testing.T) {
	cases := map[int]PendingLevel{0: PendingOK, 1: PendingWarn, 10: PendingWarn, 11: PendingAlert}
	for n, want := range cases {
		if got := LevelFor(n); got != want {
			t.Fatalf("LevelFor(%d) = %s, want %s", n, got, want)
		}
	}
	if ClampPending("-4").Pendientes != 0 || ClampPending("12x").Pendientes != 12 {
		t.Fatalf("clamp mismatch")
	}
}
