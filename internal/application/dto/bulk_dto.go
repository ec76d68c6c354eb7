package dto

// BulkActionRequest acción masiva sobre una selección.
// Value: id de miembro (assign), estado (status) o prioridad (priority).
type BulkActionRequest struct {
	Action string   `json:"action" validate:"required,oneof=assign status priority delete export"`
	IDs    []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
	Value  string   `json:"value"`
}

// BulkResult resultado confirmado de una acción masiva.
type BulkResult struct {
	Action   string   `json:"action"`
	State    string   `json:"state"`
	Affected []string `json:"affected"`
	Count    int      `json:"count"`
}
