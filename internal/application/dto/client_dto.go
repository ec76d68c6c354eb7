package dto

import "time"

// CreateClientRequest alta de cliente. OwnerID vacío asigna al usuario actual.
type CreateClientRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Tier    string `json:"tier" validate:"required,oneof=ENTERPRISE CORPORATE SMB"`
	Status  string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE PROSPECT"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	OwnerID string `json:"owner_id"`
}

// UpdateClientRequest actualización parcial.
type UpdateClientRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=200"`
	Tier   *string `json:"tier" validate:"omitempty,oneof=ENTERPRISE CORPORATE SMB"`
	Status *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE PROSPECT"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Phone  *string `json:"phone" validate:"omitempty,max=50"`
}

// ClientListQuery filtros del listado.
type ClientListQuery struct {
	PageRequest
	Tier   string `query:"tier" validate:"omitempty,oneof=ENTERPRISE CORPORATE SMB"`
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE INACTIVE PROSPECT"`
	Search string `query:"q" validate:"omitempty,max=100"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      string    `json:"tier"`
	Status    string    `json:"status"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientListResponse listado paginado.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
