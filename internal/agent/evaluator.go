package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tiendasneto/expansion-cli/pkg/anthropic"
)

// Decision is the executive semaphore verdict.
type Decision string

const (
	DecisionAvanzar   Decision = "AVANZAR"
	DecisionEvaluar   Decision = "EVALUAR"
	DecisionDescartar Decision = "DESCARTAR"
)

const systemPrompt = "Eres un analista senior de expansión retail hard-discount. " +
	"Debes responder exclusivamente con JSON válido, sin texto adicional."

// Evaluation is one model verdict.
type Evaluation struct {
	Decision    Decision `json:"decision"`
	Explicacion string   `json:"explicacion"`
}

// Evaluator runs site evaluations against the model.
type Evaluator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewEvaluator builds an evaluator on a client and model ID.
func NewEvaluator(client anthropic.Client, model string) *Evaluator {
	return &Evaluator{
		client:      client,
		model:       model,
		maxTokens:   1024,
		temperature: 0.2,
	}
}

// EvaluateDual runs two independent evaluations over the same prompt and
// returns the flat downstream keys. The two runs share data but not
// reasoning; disagreement between them is itself a signal.
func (e *Evaluator) EvaluateDual(ctx context.Context, prompt string) (map[string]any, error) {
	evals := make([]*Evaluation, 2)

	g, ctx := errgroup.WithContext(ctx)
	for i := range evals {
		g.Go(func() error {
			ev, err := e.runOnce(ctx, prompt)
			if err != nil {
				return err
			}
			evals[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if evals[0].Decision != evals[1].Decision {
		zap.L().Warn("model evaluations disagree",
			zap.String("decision_1", string(evals[0].Decision)),
			zap.String("decision_2", string(evals[1].Decision)),
		)
	}

	return map[string]any{
		"decision_modelo_1": string(evals[0].Decision),
		"explicacion_1":     evals[0].Explicacion,
		"decision_modelo_2": string(evals[1].Decision),
		"explicacion_2":     evals[1].Explicacion,
	}, nil
}

func (e *Evaluator) runOnce(ctx context.Context, prompt string) (*Evaluation, error) {
	temp := e.temperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "agent: evaluate site")
	}
	resp.Usage.LogCost(e.model, "site_evaluation")

	eval, err := parseEvaluation(resp.Text())
	if err != nil {
		return nil, err
	}
	return eval, nil
}

// parseEvaluation decodes and validates one model response.
func parseEvaluation(text string) (*Evaluation, error) {
	var eval Evaluation
	if err := json.Unmarshal([]byte(cleanJSON(text)), &eval); err != nil {
		return nil, eris.Wrap(err, "agent: parse model response")
	}

	eval.Decision = Decision(strings.ToUpper(strings.TrimSpace(string(eval.Decision))))
	eval.Explicacion = strings.TrimSpace(eval.Explicacion)

	switch eval.Decision {
	case DecisionAvanzar, DecisionEvaluar, DecisionDescartar:
	default:
		return nil, eris.Errorf("agent: invalid decision %q", eval.Decision)
	}
	if eval.Explicacion == "" {
		return nil, eris.New("agent: empty explanation")
	}
	return &eval, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
