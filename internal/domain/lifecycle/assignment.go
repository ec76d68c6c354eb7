package lifecycle

import (
	"sort"
	"strings"
)

// NormalizeAssignees quita vacíos y duplicados y ordena.
func NormalizeAssignees(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AssignmentDiff altas y bajas respecto al conjunto anterior.
type AssignmentDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty sin cambios.
func (d AssignmentDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Describe texto para la actividad.
func (d AssignmentDiff) Describe() string {
	var parts []string
	if len(d.Added) > 0 {
		parts = append(parts, "Asignados: "+strings.Join(d.Added, ", "))
	}
	if len(d.Removed) > 0 {
		parts = append(parts, "Desasignados: "+strings.Join(d.Removed, ", "))
	}
	return strings.Join(parts, ". ")
}

// DiffAssignees compara el conjunto anterior con el nuevo (reemplazo completo).
func DiffAssignees(prev, next []string) AssignmentDiff {
	p := NormalizeAssignees(prev)
	n := NormalizeAssignees(next)
	inPrev := make(map[string]struct{}, len(p))
	for _, id := range p {
		inPrev[id] = struct{}{}
	}
	inNext := make(map[string]struct{}, len(n))
	for _, id := range n {
		inNext[id] = struct{}{}
	}
	var d AssignmentDiff
	for _, id := range n {
		if _, ok := inPrev[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}
	for _, id := range p {
		if _, ok := inNext[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	return d
}
