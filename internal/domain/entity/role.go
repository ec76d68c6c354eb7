package entity

import "time"

// Role rol de una company. Tiene exactamente un conjunto de permisos (role_permissions).
type Role struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}
