// Package menu carga la definición de navegación (menú lateral y tabla de rutas protegidas).
package menu

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iptegra/nexus-api/internal/domain/access"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

//go:embed navigation.yaml
var defaultNavigation []byte

// Definition contenido de navigation.yaml.
type Definition struct {
	SignIn   string         `yaml:"signIn"`
	Fallback string         `yaml:"fallback"`
	Menu     access.Menu    `yaml:"menu"`
	Routes   []access.Route `yaml:"routes"`
}

// Default definición embebida en el binario.
func Default() (*Definition, error) {
	return Parse(defaultNavigation)
}

// Parse decodifica y valida una definición. Las claves de permiso deben existir en el catálogo:
// una errata en el YAML dejaría una ruta inaccesible para todos menos CEO.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("navegación: %w", err)
	}
	if def.SignIn == "" || def.Fallback == "" {
		return nil, fmt.Errorf("navegación: signIn y fallback son obligatorios")
	}
	seen := make(map[string]bool, len(def.Routes))
	for _, r := range def.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("navegación: ruta %q debe empezar por /", r.Path)
		}
		if seen[r.Path] {
			return nil, fmt.Errorf("navegación: ruta %q duplicada", r.Path)
		}
		seen[r.Path] = true
		if err := checkKeys(r.Path, r.Requirement); err != nil {
			return nil, err
		}
	}
	for _, s := range def.Menu {
		for _, item := range s.Items {
			if err := checkKeys(item.Path, item.Requirement); err != nil {
				return nil, err
			}
		}
	}
	return &def, nil
}

func checkKeys(path string, req access.Requirement) error {
	keys := append([]permission.Key{}, req.AnyPermissions...)
	if req.Permission != "" {
		keys = append(keys, req.Permission)
	}
	for _, k := range keys {
		if !permission.Known(k) {
			return fmt.Errorf("navegación: %s usa la clave desconocida %q", path, k)
		}
	}
	return nil
}

// Guard construye el guardián de rutas.
func (d *Definition) Guard() *access.Guard {
	return access.NewGuard(d.SignIn, d.Fallback, d.Routes)
}

// MenuFilter construye el filtro memoizado del menú.
func (d *Definition) MenuFilter() *access.MenuFilter {
	return access.NewMenuFilter(d.Menu)
}
