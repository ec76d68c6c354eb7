package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Kind distingue permiso, precondición y fallos
// temporales; Retryable indica si la UI puede ofrecer "reintentar".
type ErrorResponse struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Kind      string   `json:"kind,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}
