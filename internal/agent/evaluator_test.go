package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendasneto/expansion-cli/internal/benchmark"
	"github.com/tiendasneto/expansion-cli/pkg/anthropic"
)

// mockClient returns canned responses in call order. The evaluator
// calls it from concurrent goroutines, so access is locked.
type mockClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
	lastReq   anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	text := m.responses[m.calls%len(m.responses)]
	m.calls++
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}, nil
}

func TestBuildPromptSections(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Payload: map[string]any{"lat": 19.43, "region": "METRO SUR"},
		Vector: &benchmark.RegionVector{
			Region:     "Metro Sur",
			Equilibrio: map[string]any{"profile_equilibrio": map[string]any{"transacciones": 850.0}},
		},
	})

	assert.Contains(t, prompt, "analista senior de expansión")
	assert.Contains(t, prompt, "CONTEXTO REGIONAL:")
	assert.Contains(t, prompt, "Región evaluada: Metro Sur")
	assert.Contains(t, prompt, "DATOS DEL SITIO CANDIDATO:")
	assert.Contains(t, prompt, "\"region\": \"METRO SUR\"")
	assert.Contains(t, prompt, "BENCHMARKS DE REFERENCIA:")
	assert.Contains(t, prompt, "CRITERIOS DE DECISIÓN (SEMÁFORO):")
	assert.Contains(t, prompt, "AVANZAR | EVALUAR | DESCARTAR")
	assert.Contains(t, prompt, "NO agregues comentarios")
}

func TestBuildPromptNilVector(t *testing.T) {
	prompt := BuildPrompt(PromptInput{Payload: map[string]any{}})
	assert.Contains(t, prompt, "Región evaluada: -")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"decision": "AVANZAR"}`, `{"decision": "AVANZAR"}`},
		{"json fence", "```json\n{\"decision\": \"AVANZAR\"}\n```", `{"decision": "AVANZAR"}`},
		{"bare fence", "```\n{\"decision\": \"EVALUAR\"}\n```", `{"decision": "EVALUAR"}`},
		{"surrounding prose", "Aquí está:\n{\"decision\": \"DESCARTAR\"}\nSaludos", `{"decision": "DESCARTAR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	eval, err := parseEvaluation("```json\n{\"decision\": \" avanzar \", \"explicacion\": \" Alto potencial. \"}\n```")
	require.NoError(t, err)
	assert.Equal(t, DecisionAvanzar, eval.Decision)
	assert.Equal(t, "Alto potencial.", eval.Explicacion)
}

func TestParseEvaluationInvalidDecision(t *testing.T) {
	_, err := parseEvaluation(`{"decision": "QUIZAS", "explicacion": "x"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid decision")
}

func TestParseEvaluationEmptyExplanation(t *testing.T) {
	_, err := parseEvaluation(`{"decision": "AVANZAR", "explicacion": "  "}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty explanation")
}

func TestParseEvaluationBadJSON(t *testing.T) {
	_, err := parseEvaluation("no es json")
	assert.Error(t, err)
}

func TestEvaluateDual(t *testing.T) {
	mock := &mockClient{responses: []string{
		`{"decision": "AVANZAR", "explicacion": "Entorno favorable."}`,
	}}
	e := NewEvaluator(mock, "claude-sonnet-4-5-20250929")

	out, err := e.EvaluateDual(context.Background(), "prompt de prueba")
	require.NoError(t, err)

	assert.Equal(t, "AVANZAR", out["decision_modelo_1"])
	assert.Equal(t, "AVANZAR", out["decision_modelo_2"])
	assert.Equal(t, "Entorno favorable.", out["explicacion_1"])
	assert.Equal(t, "Entorno favorable.", out["explicacion_2"])
	assert.Equal(t, 2, mock.calls)

	// System prompt and temperature travel with every call.
	require.Len(t, mock.lastReq.System, 1)
	assert.Contains(t, mock.lastReq.System[0].Text, "JSON válido")
	require.NotNil(t, mock.lastReq.Temperature)
	assert.Equal(t, 0.2, *mock.lastReq.Temperature)
}

func TestEvaluateDualInvalidResponse(t *testing.T) {
	mock := &mockClient{responses: []string{"no json aquí"}}
	e := NewEvaluator(mock, "claude-sonnet-4-5-20250929")

	_, err := e.EvaluateDual(context.Background(), "prompt")
	assert.Error(t, err)
}
