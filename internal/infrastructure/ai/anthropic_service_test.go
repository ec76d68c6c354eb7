package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/infrastructure/ai"
)

func claudeServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "REQ-000042")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		resp := map[string]any{"content": []map[string]string{{"type": "text", "text": text}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

var facts = dto.RequestRiskFacts{RequestNumber: "REQ-000042", Title: "Migrar PBX", Priority: "CRITICAL", EstimatedHours: "10", ActualHours: "14"}

func TestAssessRequestRisk_JSONEnMarkdown(t *testing.T) {
	text := "Claro, aquí está:\n```json\n{\"risk_level\":\"high\",\"summary\":\" Excede lo estimado \",\"recommendations\":[\"a\",\"b\",\"c\",\"d\"]}\n```"
	srv := claudeServer(t, http.StatusOK, text)
	svc := ai.NewAnthropicService("key", "claude-3-5-haiku-20241022").WithEndpoint(srv.URL)

	out, err := svc.AssessRequestRisk(context.Background(), facts)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", out.RiskLevel)
	assert.Equal(t, "Excede lo estimado", out.Summary)
	assert.Equal(t, []string{"a", "b", "c"}, out.Recommendations, "máximo 3 recomendaciones")
}

func TestAssessRequestRisk_NivelDesconocidoEsMedium(t *testing.T) {
	srv := claudeServer(t, http.StatusOK, `{"risk_level":"???","summary":"ok"}`)
	svc := ai.NewAnthropicService("key", "m").WithEndpoint(srv.URL)

	out, err := svc.AssessRequestRisk(context.Background(), facts)
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", out.RiskLevel)
	assert.NotNil(t, out.Recommendations)
}

func TestAssessRequestRisk_SobrecargaEsTemporal(t *testing.T) {
	srv := claudeServer(t, 529, "")
	svc := ai.NewAnthropicService("key", "m").WithEndpoint(srv.URL)

	_, err := svc.AssessRequestRisk(context.Background(), facts)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientIO)
	assert.True(t, strings.Contains(err.Error(), "overloaded_error"))
}

func TestAssessRequestRisk_SinAPIKey(t *testing.T) {
	_, err := ai.NewAnthropicService("", "m").AssessRequestRisk(context.Background(), facts)
	assert.Error(t, err)
}
