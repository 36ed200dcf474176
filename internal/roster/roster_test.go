package roster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pdptracker/internal/core"
)

func TestDefaultRoster(t *testing.T) {
	people := Default()
	want := []string{"espinosa", "fernandez", "vazquez", "aguilar"}
	got := IDs(people)
	if len(got) != len(want) {
		t.Fatalf("expected %d people, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if people[1].Apodo != "Chema" || people[0].Color != "#c4956a" {
		t.Fatalf("unexpected default data: %+v", people[:2])
	}
	if people[3].Gradient == "" {
		t.Fatalf("gradient not decoded")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	doc := "people:\n  - id: lopez\n    nombre: Ana López\n    color: \"#123456\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	people, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(people) != 1 || people[0].ID != "lopez" || people[0].Corto != "Ana López" {
		t.Fatalf("unexpected roster: %+v", people)
	}

	if people, err := Load(""); err != nil || len(people) != 4 {
		t.Fatalf("empty path should give default roster, got %d, %v", len(people), err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseRejectsBadRosters(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "people: []\n", ErrEmptyRoster},
		{"missing id", "people:\n  - nombre: X\n", core.ErrEmptyID},
		{"duplicate", "people:\n  - id: a\n  - id: a\n", ErrDuplicateID},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.doc))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if _, err := Parse([]byte("people: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}
