package entity

import "sort"

// SelectionSet conjunto efímero de ids elegidos para una acción masiva.
// Pertenece a una sola sesión; no se persiste ni es seguro para uso concurrente.
type SelectionSet struct {
	ids map[string]struct{}
}

// NewSelectionSet crea una selección con los ids dados (sin duplicados).
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *SelectionSet) Add(id string) {
	if id == "" {
		return
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s *SelectionSet) Remove(id string) {
	delete(s.ids, id)
}

// Toggle añade el id si no estaba y lo quita si estaba (checkbox de la tabla).
func (s *SelectionSet) Toggle(id string) {
	if s.Contains(id) {
		s.Remove(id)
		return
	}
	s.Add(id)
}

func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *SelectionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs devuelve los ids ordenados (orden estable para procesar y reportar fallos).
func (s *SelectionSet) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear vacía la selección.
func (s *SelectionSet) Clear() {
	s.ids = make(map[string]struct{})
}
