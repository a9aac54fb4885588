package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macgpt/internal/domain"
)

type fakeBackend struct {
	prompt string
	reply  domain.Reply
	err    error
}

func (f *fakeBackend) Generate(_ context.Context, prompt string) (domain.Reply, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func contextRecords() []domain.Record {
	return []domain.Record{
		{Fields: map[string]any{"materia": "Cálculo I", "semestre": "1"}},
		{Fields: map[string]any{"materia": "Redes Neuronales", "semestre": "8"}},
	}
}

func TestGeneratePromptStructure(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{Text: "respuesta"}}
	g := New(backend, nil)

	g.Generate(context.Background(), "¿Qué materias hay?", "olap_plan_de_estudios", contextRecords())

	assert.Contains(t, backend.prompt, "¿Qué materias hay?")
	assert.Contains(t, backend.prompt, "BASE DE CONOCIMIENTOS (olap_plan_de_estudios):")
	assert.Contains(t, backend.prompt, "'materia': 'Cálculo I'")
	assert.Contains(t, backend.prompt, "'materia': 'Redes Neuronales'")
	assert.Contains(t, backend.prompt, AnswerDelimiter)
}

func TestGenerateClassificationFailedPlaceholder(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{Text: "respuesta"}}
	g := New(backend, nil)

	g.Generate(context.Background(), "pregunta", "", nil)

	assert.Contains(t, backend.prompt, "N/A (Clasificación de tema fallida)")
	assert.Contains(t, backend.prompt, "pídele que la reformule")
}

func TestGenerateEmptyContextUsesCannedString(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{Text: "respuesta"}}
	g := New(backend, nil)

	g.Generate(context.Background(), "pregunta", "perfiles", nil)

	assert.Contains(t, backend.prompt, ContextUnavailable)
}

func TestGenerateDelimiterPostProcessing(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{
		Text: "PREGUNTA DEL USUARIO:\n...\n" + AnswerDelimiter + "\n  La carrera dura ocho semestres.  ",
	}}
	g := New(backend, nil)

	out := g.Generate(context.Background(), "q", "acerca_de", contextRecords())
	assert.Equal(t, "La carrera dura ocho semestres.", out)
}

func TestGenerateWithoutDelimiterReturnsRaw(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{Text: "  respuesta directa  "}}
	g := New(backend, nil)

	out := g.Generate(context.Background(), "q", "acerca_de", contextRecords())
	assert.Equal(t, "respuesta directa", out)
}

func TestGenerateBlockedReturnsReason(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{BlockReason: "SAFETY"}}
	g := New(backend, nil)

	out := g.Generate(context.Background(), "q", "acerca_de", contextRecords())
	assert.Equal(t, "Respuesta bloqueada: SAFETY.", out)
	assert.NotContains(t, out, "Cálculo")
}

func TestGenerateEmptyTextReturnsFixedString(t *testing.T) {
	backend := &fakeBackend{reply: domain.Reply{Text: "   "}}
	g := New(backend, nil)

	out := g.Generate(context.Background(), "q", "acerca_de", contextRecords())
	assert.Equal(t, "El modelo no generó respuesta.", out)
}

func TestGenerateTransportErrorBecomesString(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	g := New(backend, nil)

	out := g.Generate(context.Background(), "q", "acerca_de", contextRecords())
	require.NotEmpty(t, out)
	assert.Contains(t, out, "Error al generar respuesta")
	assert.Contains(t, out, "connection refused")
}

func TestRenderContextIsVectorFree(t *testing.T) {
	// Records reaching the generator are already embedding-free; the
	// rendering must not invent the field back.
	text := renderContext(contextRecords())
	assert.NotContains(t, text, "embeddings")
	assert.Contains(t, text, "'semestre': '1'")
}
