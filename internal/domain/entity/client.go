package entity

import "time"

// ClientTier segmento comercial.
type ClientTier string

const (
	TierEnterprise ClientTier = "ENTERPRISE"
	TierCorporate  ClientTier = "CORPORATE"
	TierSMB        ClientTier = "SMB"
)

func (t ClientTier) IsValid() bool {
	return t == TierEnterprise || t == TierCorporate || t == TierSMB
}

// ClientStatus estado comercial del cliente.
type ClientStatus string

const (
	ClientActive   ClientStatus = "ACTIVE"
	ClientInactive ClientStatus = "INACTIVE"
	ClientProspect ClientStatus = "PROSPECT"
)

func (s ClientStatus) IsValid() bool {
	return s == ClientActive || s == ClientInactive || s == ClientProspect
}

// Client cliente de la consultora. OwnerID es el responsable comercial (edit_own_client).
type Client struct {
	ID        string
	CompanyID string
	Name      string
	Tier      ClientTier
	Status    ClientStatus
	Email     string
	Phone     string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
