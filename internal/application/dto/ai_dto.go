package dto

// RequestRiskFacts datos de la solicitud que se envían al modelo.
type RequestRiskFacts struct {
	RequestNumber  string
	Title          string
	Description    string
	Type           string
	Status         string
	Priority       string
	AssignedCount  int
	EstimatedHours string
	ActualHours    string
	AgeDays        int
}

// RequestRiskDTO evaluación de riesgo devuelta por el LLM.
type RequestRiskDTO struct {
	RequestID       string   `json:"request_id"`
	RiskLevel       string   `json:"risk_level"` // LOW, MEDIUM, HIGH
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}
