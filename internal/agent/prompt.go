// Package agent runs the executive site evaluation through the language
// model: prompt assembly, dual independent runs, and strict JSON output
// validation.
package agent

import (
	"encoding/json"
	"strings"

	"github.com/tiendasneto/expansion-cli/internal/benchmark"
)

// PromptInput is everything the evaluation prompt is built from.
type PromptInput struct {
	Payload      map[string]any
	Vector       *benchmark.RegionVector
	TablaGlobal  []benchmark.Row
	TablaMaduras []benchmark.Row
}

// BuildPrompt assembles the semaphore evaluation prompt. It only
// generates text; it never calls the model.
func BuildPrompt(in PromptInput) string {
	sections := []string{
		promptHeader,
		buildRegionContext(in.Vector),
		buildPayloadContext(in.Payload),
		buildBenchmarksContext(in.TablaGlobal, in.TablaMaduras),
		decisionRules,
		outputSchema,
	}
	return strings.Join(sections, "\n\n")
}

const promptHeader = "Eres un analista senior de expansión retail hard-discount.\n" +
	"Tu objetivo es evaluar un sitio candidato para apertura de tienda " +
	"y emitir una recomendación ejecutiva clara y justificada."

const decisionRules = "CRITERIOS DE DECISIÓN (SEMÁFORO):\n" +
	"- AVANZAR: El sitio muestra alto potencial de demanda, " +
	"condiciones favorables y riesgos controlados.\n" +
	"- EVALUAR: El sitio presenta señales mixtas, incertidumbre " +
	"operativa o requiere validaciones adicionales.\n" +
	"- DESCARTAR: El sitio tiene bajo potencial, saturación competitiva " +
	"o riesgos elevados que comprometen la rentabilidad."

const outputSchema = "FORMATO DE RESPUESTA (OBLIGATORIO):\n" +
	"Debes responder EXCLUSIVAMENTE en JSON válido, sin texto adicional.\n\n" +
	"{\n" +
	"  \"decision\": \"AVANZAR | EVALUAR | DESCARTAR\",\n" +
	"  \"explicacion\": \"Explicación ejecutiva clara, concisa y orientada a toma de decisión\"\n" +
	"}\n\n" +
	"NO agregues comentarios, encabezados ni texto fuera del JSON."

func buildRegionContext(vector *benchmark.RegionVector) string {
	region := "-"
	equilibrio := map[string]any{}
	if vector != nil {
		region = vector.Region
		equilibrio = vector.Equilibrio
	}
	return "CONTEXTO REGIONAL:\n" +
		"Región evaluada: " + region + "\n\n" +
		"Vector de equilibrio regional (referencia de desempeño esperado):\n" +
		mustIndentJSON(equilibrio)
}

func buildPayloadContext(payload map[string]any) string {
	return "DATOS DEL SITIO CANDIDATO:\n" +
		"La siguiente información describe el punto propuesto, su entorno " +
		"demográfico, competitivo y operativo.\n\n" +
		mustIndentJSON(payload)
}

func buildBenchmarksContext(global, maduras []benchmark.Row) string {
	return "BENCHMARKS DE REFERENCIA:\n\n" +
		"Comparativos globales:\n" +
		mustIndentJSON(global) + "\n\n" +
		"Comparativos de tiendas maduras:\n" +
		mustIndentJSON(maduras)
}

// mustIndentJSON renders a value for prompt embedding. Inputs are
// scrubbed payload maps and benchmark rows, which always encode; a
// failure still yields a readable marker instead of a panic.
func mustIndentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
