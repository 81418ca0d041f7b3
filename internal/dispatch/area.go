package dispatch

import (
	"strings"

	"github.com/ordena/comandero/internal/model"
)

// NormalizeAreaName collapses every historical "no area" sentinel to the
// single General fallback.  Older clients persisted the literal strings
// "null" and "undefined" where an area name was absent; those spellings are
// normalized here, once, at the boundary — business logic only ever
// compares the normalized value.
func NormalizeAreaName(name string) string {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "", "null", "undefined", strings.ToLower(model.AreaGeneral):
		return model.AreaGeneral
	}
	return strings.TrimSpace(name)
}

// Directory resolves area ids to display names.  It is built from the
// read-only area list served by the catalog API; ids missing from the
// directory resolve to General (fallback, not an error).
type Directory struct {
	names map[int64]string
}

// NewDirectory builds a Directory from the ordered area list.
func NewDirectory(areas []model.Area) Directory {
	names := make(map[int64]string, len(areas))
	for _, a := range areas {
		names[a.ID] = NormalizeAreaName(a.Name)
	}
	return Directory{names: names}
}

// Resolve returns the normalized area name for an id.  Zero (unset) and
// unknown ids both route to General.
func (d Directory) Resolve(areaID int64) string {
	if areaID == 0 {
		return model.AreaGeneral
	}
	if name, ok := d.names[areaID]; ok {
		return name
	}
	return model.AreaGeneral
}
