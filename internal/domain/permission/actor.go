package permission

// Actor identidad resuelta de quien llama: usuario, tenant, rol y permisos cargados.
// Se construye una vez por petición y se pasa explícitamente a cada caso de uso.
type Actor struct {
	UserID      string
	CompanyID   string
	Role        Role
	Permissions Set
}

func (a Actor) Can(k Key) bool { return Can(a.Role, a.Permissions, k) }

func (a Actor) Cannot(k Key) bool { return Cannot(a.Role, a.Permissions, k) }

func (a Actor) CanAny(keys ...Key) bool { return CanAny(a.Role, a.Permissions, keys...) }

func (a Actor) CanAll(keys ...Key) bool { return CanAll(a.Role, a.Permissions, keys...) }

func (a Actor) IsOwner(resourceOwnerID string) bool { return IsOwner(a.UserID, resourceOwnerID) }

func (a Actor) CanEdit(kind ResourceKind, resourceOwnerID string) bool {
	return CanEditResource(a.Role, a.Permissions, kind, resourceOwnerID, a.UserID)
}

func (a Actor) ShouldFilterByUser(kind ResourceKind) bool {
	return ShouldFilterByUser(a.Role, a.Permissions, kind)
}
