// Package permission resuelve qué puede hacer un rol a partir de su conjunto de permisos.
// Todas las funciones son puras: mismas entradas, misma respuesta, sin E/S.
package permission

// Key clave de permiso. Convención verb_noun o verb_scope_noun.
type Key string

const (
	ViewExecutiveDashboard Key = "view_executive_dashboard"
	ViewProductsClients    Key = "view_products_clients"

	ViewAllClients Key = "view_all_clients"
	ViewTeamClient Key = "view_team_client"
	CreateClient   Key = "create_client"
	EditAnyClient  Key = "edit_any_client"
	EditOwnClient  Key = "edit_own_client"
	DeleteClient   Key = "delete_client"
	ExportClients  Key = "export_clients"

	ViewAllRequests       Key = "view_all_requests"
	ViewTeamRequest       Key = "view_team_request"
	CreateRequest         Key = "create_request"
	EditAnyRequest        Key = "edit_any_request"
	EditOwnRequest        Key = "edit_own_request"
	ChangeRequestStatus   Key = "change_request_status"
	ChangeRequestPriority Key = "change_request_priority"
	AssignRequest         Key = "assign_request"
	DeleteRequest         Key = "delete_request"
	ExportRequests        Key = "export_requests"

	TrackTime        Key = "track_time"
	EditAnyTimeEntry Key = "edit_any_time_entry"
	EditOwnTimeEntry Key = "edit_own_time_entry"

	ViewCapacity   Key = "view_capacity"
	ViewAIInsights Key = "view_ai_insights"
	ManageRoles    Key = "manage_roles"
)

var allKeys = []Key{
	ViewExecutiveDashboard, ViewProductsClients,
	ViewAllClients, ViewTeamClient, CreateClient, EditAnyClient, EditOwnClient, DeleteClient, ExportClients,
	ViewAllRequests, ViewTeamRequest, CreateRequest, EditAnyRequest, EditOwnRequest,
	ChangeRequestStatus, ChangeRequestPriority, AssignRequest, DeleteRequest, ExportRequests,
	TrackTime, EditAnyTimeEntry, EditOwnTimeEntry,
	ViewCapacity, ViewAIInsights, ManageRoles,
}

var known = func() map[Key]struct{} {
	m := make(map[Key]struct{}, len(allKeys))
	for _, k := range allKeys {
		m[k] = struct{}{}
	}
	return m
}()

// AllKeys devuelve una copia del catálogo de claves conocidas.
func AllKeys() []Key {
	out := make([]Key, len(allKeys))
	copy(out, allKeys)
	return out
}

// Known indica si la clave está en el catálogo. Una clave desconocida no es error:
// el servidor puede definir claves nuevas y se resuelven como false.
func Known(k Key) bool {
	_, ok := known[k]
	return ok
}

// Role nombre de rol. CEO es el superusuario implícito.
type Role string

const (
	RoleCEO            Role = "CEO"
	RoleDevDirector    Role = "DEV_DIRECTOR"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleBackend        Role = "BACKEND"
	RoleFrontend       Role = "FRONTEND"
	RoleFullstack      Role = "FULLSTACK"
	RoleSoporteVoIP    Role = "SOPORTE_VOIP"
	RoleComercial      Role = "COMERCIAL"
)

// IsSuperuser solo CEO.
func (r Role) IsSuperuser() bool {
	return r == RoleCEO
}
