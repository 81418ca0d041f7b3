package dispatch

import (
	"testing"

	"github.com/ordena/comandero/internal/model"
)

func TestNormalizeAreaName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "General"},
		{"   ", "General"},
		{"null", "General"},
		{"NULL", "General"},
		{"undefined", "General"},
		{"general", "General"},
		{"General", "General"},
		{"Grill", "Grill"},
		{"  Bar ", "Bar"},
	}
	for _, c := range cases {
		if got := NormalizeAreaName(c.in); got != c.want {
			t.Errorf("NormalizeAreaName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDirectoryResolve(t *testing.T) {
	dir := NewDirectory([]model.Area{
		{ID: 1, Name: "Grill", Position: 1},
		{ID: 2, Name: "null", Position: 2}, // legacy sentinel stored as a name
	})

	if got := dir.Resolve(1); got != "Grill" {
		t.Errorf("Resolve(1) = %q, want Grill", got)
	}
	if got := dir.Resolve(2); got != model.AreaGeneral {
		t.Errorf("Resolve(2) = %q, want General", got)
	}
	if got := dir.Resolve(0); got != model.AreaGeneral {
		t.Errorf("Resolve(0) = %q, want General", got)
	}
	if got := dir.Resolve(99); got != model.AreaGeneral {
		t.Errorf("Resolve(99) = %q, want General", got)
	}
}

func TestEmptyDirectoryRoutesEverythingToGeneral(t *testing.T) {
	dir := NewDirectory(nil)
	if got := dir.Resolve(42); got != model.AreaGeneral {
		t.Errorf("Resolve(42) = %q, want General", got)
	}
}
