package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/infrastructure/ai"
)

func geminiServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gkey", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "la clave no debe viajar en la URL")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGemini_AssessRequestRisk(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"risk_level":"bajo","summary":"en plazo","recommendations":["seguir"]}`)
	svc := ai.NewGeminiService("gkey", "gemini-1.5-flash").WithEndpoint(srv.URL + "/")

	out, err := svc.AssessRequestRisk(context.Background(), facts)
	require.NoError(t, err)
	assert.Equal(t, "LOW", out.RiskLevel)
	assert.Equal(t, []string{"seguir"}, out.Recommendations)
}

func TestGemini_CuotaEsTemporal(t *testing.T) {
	srv := geminiServer(t, http.StatusTooManyRequests, "")
	svc := ai.NewGeminiService("gkey", "gemini-1.5-flash").WithEndpoint(srv.URL)

	_, err := svc.AssessRequestRisk(context.Background(), facts)
	assert.ErrorIs(t, err, domain.ErrTransientIO)
}

func TestNewLLMService(t *testing.T) {
	svc, err := ai.NewLLMService("Gemini", "", "", "k", "m")
	require.NoError(t, err)
	assert.IsType(t, &ai.GeminiService{}, svc)

	svc, err = ai.NewLLMService("", "k", "m", "", "")
	require.NoError(t, err)
	assert.IsType(t, &ai.AnthropicService{}, svc)

	_, err = ai.NewLLMService("openai", "", "", "", "")
	assert.Error(t, err)
}
