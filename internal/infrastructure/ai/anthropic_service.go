package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
)

// Verificar en tiempo de compilación que AnthropicService implementa LLMService.
var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	riskSystemPrompt = `Eres un gerente de proyectos de software que evalúa el riesgo de entrega de solicitudes.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código` + " ```json" + `) con esta estructura exacta:
{
  "risk_level": "<LOW | MEDIUM | HIGH>",
  "summary": "<diagnóstico en español, máximo 240 caracteres>",
  "recommendations": ["<acción concreta>", "..."]
}

Reglas:
- HIGH si las horas reales superan las estimadas, si es CRITICAL sin asignados o si lleva muchos días sin cerrar.
- MEDIUM si hay señales de desvío pero todavía es recuperable.
- LOW en otro caso.
- Máximo 3 recomendaciones.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicService adaptador que implementa LLMService usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{
		apiKey: apiKey,
		model:  model,
		url:    anthropicMessagesURL,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además un context.WithTimeout.
			Timeout: 25 * time.Second,
		},
	}
}

// WithEndpoint cambia la URL de la API (proxy corporativo o servidor de pruebas).
func (s *AnthropicService) WithEndpoint(url string) *AnthropicService {
	s.url = url
	return s
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type riskPayload struct {
	RiskLevel       string   `json:"risk_level"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// AssessRequestRisk envía los datos de la solicitud a Claude y devuelve la evaluación.
func (s *AnthropicService) AssessRequestRisk(ctx context.Context, facts dto.RequestRiskFacts) (*dto.RequestRiskDTO, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: AI_ANTHROPIC_API_KEY no configurado")
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    riskSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: describeFacts(facts)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: AI: timeout o cancelación: %v", domain.ErrTransientIO, ctx.Err())
		}
		return nil, fmt.Errorf("%w: AI: llamada HTTP fallida: %v", domain.ErrTransientIO, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(rawBody)
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			msg = errResp.Error.Type + ": " + errResp.Error.Message
		}
		// 429 y 5xx (incluido 529 overloaded) son temporales.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: AI: Anthropic HTTP %d: %s", domain.ErrTransientIO, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, msg)
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}
	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}

	rawText := anthResp.Content[0].Text
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	return parseRisk(cleanJSON)
}

// parseRisk convierte el JSON del modelo al DTO, normalizando nivel y recomendaciones.
func parseRisk(raw string) (*dto.RequestRiskDTO, error) {
	var risk riskPayload
	if err := json.Unmarshal([]byte(raw), &risk); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de riesgo: %w (JSON extraído: %s)", err, raw)
	}
	recs := risk.Recommendations
	if len(recs) > 3 {
		recs = recs[:3]
	}
	if recs == nil {
		recs = []string{}
	}
	return &dto.RequestRiskDTO{
		RiskLevel:       normalizeRiskLevel(risk.RiskLevel),
		Summary:         strings.TrimSpace(risk.Summary),
		Recommendations: recs,
	}, nil
}

func describeFacts(f dto.RequestRiskFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Solicitud: %s - %s\n", f.RequestNumber, f.Title)
	fmt.Fprintf(&b, "Tipo: %s\nEstado: %s\nPrioridad: %s\n", f.Type, f.Status, f.Priority)
	fmt.Fprintf(&b, "Asignados: %d\n", f.AssignedCount)
	fmt.Fprintf(&b, "Horas estimadas: %s\nHoras reales: %s\n", f.EstimatedHours, f.ActualHours)
	fmt.Fprintf(&b, "Antigüedad: %d días\n", f.AgeDays)
	if d := strings.TrimSpace(f.Description); d != "" {
		fmt.Fprintf(&b, "Descripción: %s\n", d)
	}
	return b.String()
}

// normalizeRiskLevel acepta variaciones del modelo ("high", "Alto") y cae en MEDIUM si no reconoce el valor.
func normalizeRiskLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "LOW", "BAJO":
		return "LOW"
	case "HIGH", "ALTO":
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Primero quita bloques markdown (```json … ```), luego busca el primer { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}
