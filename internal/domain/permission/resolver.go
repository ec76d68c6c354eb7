package permission

import (
	"sort"
	"strings"
)

// Set mapa clave → concedido. La ausencia de una clave equivale a false.
// Se carga una vez por sesión y el núcleo lo trata como solo lectura.
type Set map[Key]bool

// Granted es seguro sobre un Set nil.
func (s Set) Granted(k Key) bool {
	return s[k]
}

// Keys devuelve las claves concedidas, ordenadas.
func (s Set) Keys() []Key {
	out := make([]Key, 0, len(s))
	for k, v := range s {
		if v {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fingerprint identifica el contenido efectivo del Set (solo claves concedidas).
// Dos Sets con la misma huella resuelven igual cualquier consulta.
func (s Set) Fingerprint() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// Clone copia el Set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SetOf construye un Set con las claves dadas concedidas.
func SetOf(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

// Can true siempre para CEO; si no, el valor de la clave (false si no existe).
func Can(role Role, set Set, key Key) bool {
	if role.IsSuperuser() {
		return true
	}
	return set.Granted(key)
}

// Cannot negación de Can.
func Cannot(role Role, set Set, key Key) bool {
	return !Can(role, set, key)
}

// CanAny true si al menos una clave se concede. Con keys vacío solo CEO pasa.
func CanAny(role Role, set Set, keys ...Key) bool {
	if role.IsSuperuser() {
		return true
	}
	for _, k := range keys {
		if set.Granted(k) {
			return true
		}
	}
	return false
}

// CanAll true si todas las claves se conceden. Con keys vacío es verdadero.
func CanAll(role Role, set Set, keys ...Key) bool {
	if role.IsSuperuser() {
		return true
	}
	for _, k := range keys {
		if !set.Granted(k) {
			return false
		}
	}
	return true
}

// IsOwner compara ids. Un usuario sin id nunca es dueño.
func IsOwner(userID, resourceOwnerID string) bool {
	return userID != "" && userID == resourceOwnerID
}

// ResourceKind sustantivo usado para construir claves edit_any_/edit_own_/view_all_.
type ResourceKind string

const (
	ResourceRequest   ResourceKind = "request"
	ResourceClient    ResourceKind = "client"
	ResourceTimeEntry ResourceKind = "time_entry"
)

// EditAnyKey edit_any_<kind>.
func EditAnyKey(kind ResourceKind) Key { return Key("edit_any_" + string(kind)) }

// EditOwnKey edit_own_<kind>.
func EditOwnKey(kind ResourceKind) Key { return Key("edit_own_" + string(kind)) }

// ViewAllKey view_all_<kind>s.
func ViewAllKey(kind ResourceKind) Key { return Key("view_all_" + string(kind) + "s") }

// ViewTeamKey view_team_<kind>.
func ViewTeamKey(kind ResourceKind) Key { return Key("view_team_" + string(kind)) }

// CanEditResource CEO; o edit_any_<kind>; o edit_own_<kind> siendo dueño.
func CanEditResource(role Role, set Set, kind ResourceKind, resourceOwnerID, userID string) bool {
	if role.IsSuperuser() {
		return true
	}
	if Can(role, set, EditAnyKey(kind)) {
		return true
	}
	return Can(role, set, EditOwnKey(kind)) && IsOwner(userID, resourceOwnerID)
}

// ShouldFilterByUser indica que un listado debe restringirse a lo propio del usuario.
func ShouldFilterByUser(role Role, set Set, kind ResourceKind) bool {
	if role.IsSuperuser() {
		return false
	}
	if Can(role, set, ViewAllKey(kind)) || Can(role, set, ViewTeamKey(kind)) {
		return false
	}
	return true
}
