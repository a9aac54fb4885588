package topics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macgpt/internal/domain"
)

type fakeEmbedder struct {
	calls int
	fn    func(text string, task domain.TaskType) ([]float64, error)
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, task domain.TaskType) ([]float64, error) {
	f.calls++
	return f.fn(text, task)
}

func testTopics() []domain.Topic {
	return []domain.Topic{
		{ID: "alpha", Description: "first topic"},
		{ID: "beta", Description: "second topic"},
		{ID: "gamma", Description: "third topic"},
	}
}

func basisEmbedder() *fakeEmbedder {
	vectors := map[string][]float64{
		"first topic":  {1, 0, 0},
		"second topic": {0, 1, 0},
		"third topic":  {0, 0, 1},
	}
	return &fakeEmbedder{fn: func(text string, task domain.TaskType) ([]float64, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		// Questions land closest to beta.
		return []float64{0.1, 0.9, 0.2}, nil
	}}
}

func TestInitEmbeddingsIdempotent(t *testing.T) {
	emb := basisEmbedder()
	ix := NewIndex(testTopics(), emb, nil)

	require.True(t, ix.InitEmbeddings(context.Background()))
	first := emb.calls
	assert.Equal(t, 3, first)

	require.True(t, ix.InitEmbeddings(context.Background()))
	assert.Equal(t, first, emb.calls, "second init must not call the provider again")
}

func TestInitEmbeddingsPartialFailureStillUsable(t *testing.T) {
	emb := &fakeEmbedder{fn: func(text string, task domain.TaskType) ([]float64, error) {
		if text == "second topic" {
			return nil, errors.New("provider down")
		}
		return []float64{1, 0, 0}, nil
	}}
	ix := NewIndex(testTopics(), emb, nil)
	assert.True(t, ix.InitEmbeddings(context.Background()),
		"partial failure still counts as initialized")
}

func TestInitEmbeddingsTotalFailure(t *testing.T) {
	emb := &fakeEmbedder{fn: func(string, domain.TaskType) ([]float64, error) {
		return nil, errors.New("provider down")
	}}
	ix := NewIndex(testTopics(), emb, nil)
	assert.False(t, ix.InitEmbeddings(context.Background()))
}

func TestClassifyDeterministicArgmax(t *testing.T) {
	emb := basisEmbedder()
	ix := NewIndex(testTopics(), emb, nil)
	require.True(t, ix.InitEmbeddings(context.Background()))

	for i := 0; i < 5; i++ {
		assert.Equal(t, "beta", ix.Classify(context.Background(), "anything"))
	}
}

func TestClassifyTieBreaksToCatalogOrder(t *testing.T) {
	// All topics share one embedding, so every similarity ties.
	emb := &fakeEmbedder{fn: func(string, domain.TaskType) ([]float64, error) {
		return []float64{1, 1, 1}, nil
	}}
	ix := NewIndex(testTopics(), emb, nil)
	require.True(t, ix.InitEmbeddings(context.Background()))

	assert.Equal(t, "alpha", ix.Classify(context.Background(), "tie"))
}

func TestClassifyEmptyQuestionSkipsProvider(t *testing.T) {
	emb := basisEmbedder()
	ix := NewIndex(testTopics(), emb, nil)
	require.True(t, ix.InitEmbeddings(context.Background()))
	before := emb.calls

	assert.Equal(t, "", ix.Classify(context.Background(), "   "))
	assert.Equal(t, before, emb.calls, "empty question must not reach the provider")
}

func TestClassifyWithoutCache(t *testing.T) {
	ix := NewIndex(testTopics(), basisEmbedder(), nil)
	assert.Equal(t, "", ix.Classify(context.Background(), "question"))
}

func TestClassifyQuestionEmbeddingFailure(t *testing.T) {
	failQueries := &fakeEmbedder{fn: func(text string, task domain.TaskType) ([]float64, error) {
		if task == domain.TaskQuery {
			return nil, errors.New("provider down")
		}
		return []float64{1, 0, 0}, nil
	}}
	ix := NewIndex(testTopics(), failQueries, nil)
	require.True(t, ix.InitEmbeddings(context.Background()))

	assert.Equal(t, "", ix.Classify(context.Background(), "question"))
}

func TestCatalogOrderFixed(t *testing.T) {
	ids := make([]string, 0)
	for _, topic := range Catalog() {
		ids = append(ids, topic.ID)
	}
	assert.Equal(t, []string{
		"acerca_de",
		"convocatorias_eventos_avisos",
		"olap_plan_de_estudios",
		"perfiles",
		"profesores",
	}, ids)
}
