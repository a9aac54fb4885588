package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macgpt/internal/domain"
	"macgpt/internal/store"
	"macgpt/internal/topics"
)

type fakeEmbedder struct {
	queryCalls    int
	documentCalls int
	queryErr      error
	fn            func(text string) []float64
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, task domain.TaskType) ([]float64, error) {
	if task == domain.TaskQuery {
		f.queryCalls++
		if f.queryErr != nil {
			return nil, f.queryErr
		}
	} else {
		f.documentCalls++
	}
	return f.fn(text), nil
}

type fakeGenerator struct {
	prompt string
	reply  domain.Reply
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (domain.Reply, error) {
	f.prompt = prompt
	return f.reply, f.err
}

type fakeLoader struct {
	records map[string][]domain.Record
}

func (f *fakeLoader) Load(topicID string) ([]domain.Record, error) {
	recs, ok := f.records[topicID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrStoreNotFound, topicID)
	}
	return recs, nil
}

func (f *fakeLoader) Exists(topicID string) bool {
	_, ok := f.records[topicID]
	return ok
}

// catalogEmbedder maps each catalog topic description onto its own axis and
// every question onto the third axis (olap_plan_de_estudios).
func catalogEmbedder() *fakeEmbedder {
	axes := map[string]int{}
	for i, t := range topics.Catalog() {
		axes[t.Description] = i
	}
	return &fakeEmbedder{fn: func(text string) []float64 {
		vec := make([]float64, 5)
		if i, ok := axes[text]; ok {
			vec[i] = 1
			return vec
		}
		vec[2] = 1
		return vec
	}}
}

// planRecords builds n records whose similarity to the e3 question axis
// increases with the record index, so ranking must reverse store order.
func planRecords(n int) []domain.Record {
	recs := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, domain.Record{
			Fields:    map[string]any{"name": fmt.Sprint(i)},
			Embedding: []float64{float64(n - 1 - i), 0, 1, 0, 0},
		})
	}
	return recs
}

func newTestSession(emb domain.Embedder, gen domain.Generator, loader StoreLoader) *Session {
	return New(Options{Embedder: emb, Generator: gen, Loader: loader})
}

func TestAskScenarioRetrievesTopSeven(t *testing.T) {
	emb := catalogEmbedder()
	gen := &fakeGenerator{reply: domain.Reply{Text: "respuesta"}}
	loader := &fakeLoader{records: map[string][]domain.Record{
		"olap_plan_de_estudios": planRecords(10),
	}}
	s := newTestSession(emb, gen, loader)

	out := s.Ask(context.Background(), "¿Cuáles son las áreas de especialización?")
	assert.Equal(t, "respuesta", out)

	// Exactly 7 context records, best-aligned first.
	for _, name := range []string{"9", "8", "7", "6", "5", "4", "3"} {
		assert.Contains(t, gen.prompt, fmt.Sprintf("'name': '%s'", name))
	}
	assert.NotContains(t, gen.prompt, "'name': '2'")
	assert.NotContains(t, gen.prompt, "'name': '0'")
	assert.Contains(t, gen.prompt, "BASE DE CONOCIMIENTOS (olap_plan_de_estudios):")
}

func TestAskEmptyQuestionSkipsProvider(t *testing.T) {
	emb := catalogEmbedder()
	s := newTestSession(emb, &fakeGenerator{}, &fakeLoader{})

	out := s.Ask(context.Background(), "")
	assert.Equal(t, "MAC-GPT: Parece que no hubo una pregunta para procesar.", out)
	assert.Zero(t, emb.queryCalls)
	assert.Zero(t, emb.documentCalls)
}

func TestAskStoreNotFoundNamesTopic(t *testing.T) {
	emb := catalogEmbedder()
	gen := &fakeGenerator{reply: domain.Reply{Text: "no debería llegar aquí"}}
	s := newTestSession(emb, gen, &fakeLoader{records: map[string][]domain.Record{}})

	out := s.Ask(context.Background(), "¿Qué materias hay?")
	assert.Contains(t, out, "olap_plan_de_estudios")
	assert.Empty(t, gen.prompt, "generation must not be attempted after a store failure")
}

func TestAskBlockedGenerationReturnsReason(t *testing.T) {
	emb := catalogEmbedder()
	gen := &fakeGenerator{reply: domain.Reply{BlockReason: "SAFETY"}}
	loader := &fakeLoader{records: map[string][]domain.Record{
		"olap_plan_de_estudios": planRecords(3),
	}}
	s := newTestSession(emb, gen, loader)

	out := s.Ask(context.Background(), "pregunta")
	assert.Equal(t, "Respuesta bloqueada: SAFETY.", out)
}

func TestAskClassificationFailureDegradesToGeneration(t *testing.T) {
	emb := catalogEmbedder()
	emb.queryErr = errors.New("provider down")
	gen := &fakeGenerator{reply: domain.Reply{Text: "reformula por favor"}}
	s := newTestSession(emb, gen, &fakeLoader{})

	out := s.Ask(context.Background(), "pregunta rara")
	assert.Equal(t, "reformula por favor", out)
	assert.Contains(t, gen.prompt, "N/A (Clasificación de tema fallida)")
}

func TestAskUnconfiguredProviderReturnsString(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	s := New(Options{})

	out := s.Ask(context.Background(), "pregunta")
	assert.Contains(t, out, "No se pudo inicializar el chatbot MAC-GPT")
}

func TestAskPlaceholderKeyRejected(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", placeholderKey)
	t.Setenv("GOOGLE_API_KEY", "")
	s := New(Options{})

	out := s.Ask(context.Background(), "pregunta")
	assert.Contains(t, out, "No se pudo inicializar el chatbot MAC-GPT")
}

func TestAskTopicInitHappensOnce(t *testing.T) {
	emb := catalogEmbedder()
	gen := &fakeGenerator{reply: domain.Reply{Text: "ok"}}
	loader := &fakeLoader{records: map[string][]domain.Record{
		"olap_plan_de_estudios": planRecords(2),
	}}
	s := newTestSession(emb, gen, loader)

	s.Ask(context.Background(), "primera pregunta")
	s.Ask(context.Background(), "segunda pregunta")
	assert.Equal(t, len(topics.Catalog()), emb.documentCalls,
		"topic descriptions must be embedded once per process")
}

func TestAskNeverPanics(t *testing.T) {
	// A generator backend that panics must still come back as a string.
	panicGen := generatorFunc(func(context.Context, string) (domain.Reply, error) {
		panic("boom")
	})
	emb := catalogEmbedder()
	loader := &fakeLoader{records: map[string][]domain.Record{
		"olap_plan_de_estudios": planRecords(2),
	}}
	s := newTestSession(emb, panicGen, loader)

	var out string
	require.NotPanics(t, func() {
		out = s.Ask(context.Background(), "pregunta")
	})
	assert.NotEmpty(t, out)
}

func TestHasStores(t *testing.T) {
	s := newTestSession(catalogEmbedder(), &fakeGenerator{}, &fakeLoader{records: map[string][]domain.Record{}})
	assert.False(t, s.HasStores())

	s = newTestSession(catalogEmbedder(), &fakeGenerator{}, &fakeLoader{records: map[string][]domain.Record{
		"perfiles": {},
	}})
	assert.True(t, s.HasStores())
}

type generatorFunc func(ctx context.Context, prompt string) (domain.Reply, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (domain.Reply, error) {
	return f(ctx, prompt)
}
