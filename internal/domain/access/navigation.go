package access

import (
	"sync"

	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// MenuItem entrada del menú lateral.
type MenuItem struct {
	Label       string `yaml:"label" json:"label"`
	Path        string `yaml:"path" json:"path"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Requirement `yaml:",inline" json:",inline"`
}

// MenuSection grupo de ítems con encabezado.
type MenuSection struct {
	Title string     `yaml:"title" json:"title"`
	Items []MenuItem `yaml:"items" json:"items"`
}

// Menu árbol estático de navegación.
type Menu []MenuSection

// FilterMenu devuelve el árbol podado: se conservan los ítems sin requisito o cuyo
// requisito se cumple, y se eliminan las secciones que quedan sin ítems.
func FilterMenu(menu Menu, role permission.Role, set permission.Set) Menu {
	out := make(Menu, 0, len(menu))
	for _, section := range menu {
		var items []MenuItem
		for _, item := range section.Items {
			if item.IsEmpty() || item.Satisfied(role, set) {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, MenuSection{Title: section.Title, Items: items})
	}
	return out
}

type menuKey struct {
	role        permission.Role
	fingerprint string
}

// MenuFilter memoiza FilterMenu por (rol, huella del set). Cambiar el set o el rol
// cambia la clave, así que nunca se sirve un menú de otro rol.
type MenuFilter struct {
	menu  Menu
	mu    sync.RWMutex
	cache map[menuKey]Menu
}

// NewMenuFilter construye el filtro sobre un menú fijo.
func NewMenuFilter(menu Menu) *MenuFilter {
	return &MenuFilter{menu: menu, cache: make(map[menuKey]Menu)}
}

// Filter devuelve el menú podado para el rol y set dados.
func (f *MenuFilter) Filter(role permission.Role, set permission.Set) Menu {
	key := menuKey{role: role, fingerprint: set.Fingerprint()}
	f.mu.RLock()
	cached, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return cached
	}
	filtered := FilterMenu(f.menu, role, set)
	f.mu.Lock()
	f.cache[key] = filtered
	f.mu.Unlock()
	return filtered
}

// Reset vacía la memoria (tras editar permisos de un rol).
func (f *MenuFilter) Reset() {
	f.mu.Lock()
	f.cache = make(map[menuKey]Menu)
	f.mu.Unlock()
}
