package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macgpt/internal/domain"
	"macgpt/internal/store"
)

type fakeEmbedder struct {
	calls int
	fail  map[int]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, task domain.TaskType) ([]float64, error) {
	call := f.calls
	f.calls++
	if f.fail[call] {
		return nil, errors.New("provider down")
	}
	if task != domain.TaskDocument {
		return nil, errors.New("pipeline must embed with the document task type")
	}
	return []float64{float64(len(text)), 1}, nil
}

func TestEnrichStoreFromJSON(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(in, []byte(`[
		{"materia": "Cálculo I"},
		{"materia": "Álgebra Lineal"}
	]`), 0o644))

	loader := store.NewLoader(filepath.Join(dir, "stores"))
	emb := &fakeEmbedder{}
	res, err := NewEnricher(emb, loader, nil).EnrichStore(context.Background(), in, "olap_plan_de_estudios")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Embedded)

	records, err := loader.Load("olap_plan_de_estudios")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].Embedding)
}

func TestEnrichStoreSkipsFailedRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(in, []byte(`[
		{"materia": "a"},
		{"materia": "b"},
		{"materia": "c"}
	]`), 0o644))

	loader := store.NewLoader(filepath.Join(dir, "stores"))
	emb := &fakeEmbedder{fail: map[int]bool{1: true}}
	res, err := NewEnricher(emb, loader, nil).EnrichStore(context.Background(), in, "perfiles")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Embedded)

	records, err := loader.Load("perfiles")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Nil(t, records[1].Embedding, "failed row is kept with an empty vector")
}

func TestEnrichStoreFromCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(in, []byte("materia,semestre\nCálculo I,1\n"), 0o644))

	loader := store.NewLoader(filepath.Join(dir, "stores"))
	res, err := NewEnricher(&fakeEmbedder{}, loader, nil).EnrichStore(context.Background(), in, "plan")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestEnrichStoreRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.xml")
	require.NoError(t, os.WriteFile(in, []byte("<x/>"), 0o644))

	_, err := NewEnricher(&fakeEmbedder{}, store.NewLoader(dir), nil).EnrichStore(context.Background(), in, "plan")
	assert.Error(t, err)
}

func TestRenderRowDeterministic(t *testing.T) {
	row := map[string]any{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "a: 1\nb: 2\nc: 3", renderRow(row))
}
