// Package access decide si una ruta es alcanzable y poda el menú de navegación
// según el rol y los permisos resueltos.
package access

import (
	"strings"

	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// Requirement requisito declarado por una ruta o ítem de menú.
// Permission y AnyPermissions vacíos significan "público dentro del área autenticada".
type Requirement struct {
	Permission     permission.Key   `yaml:"permission,omitempty" json:"permission,omitempty"`
	AnyPermissions []permission.Key `yaml:"anyPermissions,omitempty" json:"any_permissions,omitempty"`
}

// IsEmpty sin requisito.
func (r Requirement) IsEmpty() bool {
	return r.Permission == "" && len(r.AnyPermissions) == 0
}

// Satisfied evalúa el requisito. anyPermissions tiene precedencia sobre permission.
func (r Requirement) Satisfied(role permission.Role, set permission.Set) bool {
	switch {
	case len(r.AnyPermissions) > 0:
		return permission.CanAny(role, set, r.AnyPermissions...)
	case r.Permission != "":
		return permission.Can(role, set, r.Permission)
	}
	return true
}

// Route ruta protegida. Path admite segmentos ":param".
type Route struct {
	Requirement `yaml:",inline" json:",inline"`

	Path     string `yaml:"path" json:"path"`
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Outcome resultado del guard.
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
	OutcomeLoading  Outcome = "loading"
)

// Decision resultado con destino de redirección si aplica.
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	RedirectTo string  `json:"redirect_to,omitempty"`
}

// GuardInput entradas del guard para una navegación.
type GuardInput struct {
	IsAuthenticated      bool
	HasLoadedPermissions bool
	Role                 permission.Role
	Permissions          permission.Set
	Path                 string
}

// Guard tabla de rutas y destinos por defecto.
type Guard struct {
	SignInPath      string
	DefaultFallback string
	routes          []Route
}

// NewGuard construye el guard. Las rutas se evalúan en el orden dado.
func NewGuard(signIn, fallback string, routes []Route) *Guard {
	rs := make([]Route, len(routes))
	copy(rs, routes)
	return &Guard{SignInPath: signIn, DefaultFallback: fallback, routes: rs}
}

// Routes copia de la tabla.
func (g *Guard) Routes() []Route {
	out := make([]Route, len(g.routes))
	copy(out, g.routes)
	return out
}

// Decide aplica las reglas en orden; gana la primera que coincide.
// Un set vacío (rol sin aprovisionar) deniega toda ruta con requisito.
func (g *Guard) Decide(in GuardInput) Decision {
	if !in.IsAuthenticated {
		return Decision{Outcome: OutcomeRedirect, RedirectTo: g.SignInPath}
	}
	if !in.HasLoadedPermissions {
		return Decision{Outcome: OutcomeLoading}
	}
	route, ok := g.match(in.Path)
	if !ok || route.IsEmpty() {
		return Decision{Outcome: OutcomeAllow}
	}
	if route.Satisfied(in.Role, in.Permissions) {
		return Decision{Outcome: OutcomeAllow}
	}
	fallback := route.Fallback
	if fallback == "" {
		fallback = g.DefaultFallback
	}
	return Decision{Outcome: OutcomeRedirect, RedirectTo: fallback}
}

func (g *Guard) match(path string) (Route, bool) {
	target := splitPath(path)
	for _, r := range g.routes {
		if matchSegments(splitPath(r.Path), target) {
			return r, true
		}
	}
	return Route{}, false
}

func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, target []string) bool {
	if len(pattern) != len(target) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if target[i] == "" {
				return false
			}
			continue
		}
		if seg != target[i] {
			return false
		}
	}
	return true
}
