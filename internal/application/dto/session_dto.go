package dto

import "github.com/iptegra/nexus-api/internal/domain/access"

// MeResponse identidad de la sesión con su rol, permisos concedidos y menú podado.
type MeResponse struct {
	UserID      string      `json:"user_id"`
	CompanyID   string      `json:"company_id"`
	Role        string      `json:"role"`
	Permissions []string    `json:"permissions"`
	Navigation  access.Menu `json:"navigation"`
}

// RouteCheckRequest consulta del guard para una ruta de la UI.
type RouteCheckRequest struct {
	Path string `json:"path" validate:"required,startswith=/"`
}

// RolePermissionsRequest reemplaza el set de un rol.
type RolePermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

// RolePermissionsResponse set resultante y claves que el servidor no reconoce.
type RolePermissionsResponse struct {
	RoleID      string          `json:"role_id"`
	Permissions map[string]bool `json:"permissions"`
	UnknownKeys []string        `json:"unknown_keys,omitempty"`
}
