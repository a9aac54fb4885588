// Package store reads and writes per-topic record stores. A store is a flat
// file addressed by topic id: JSON is the primary format, CSV the fallback.
// Embedding vectors that arrive as stringified arrays (the CSV round-trip)
// are normalized back into numeric vectors on load.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"macgpt/internal/domain"
)

// EmbeddingField is the record attribute holding the embedding vector.
const EmbeddingField = "embeddings"

var (
	// ErrStoreNotFound means no store file exists for the topic id.
	ErrStoreNotFound = errors.New("topic store not found")

	// ErrStoreEmpty means the store loaded but holds zero records.
	ErrStoreEmpty = errors.New("topic store is empty")

	// ErrMissingEmbeddingField means the store schema lacks the embedding
	// attribute entirely. Individual rows without a value are not an error;
	// they load with a nil vector and are skipped by the retriever.
	ErrMissingEmbeddingField = errors.New("embedding field missing from topic store")
)

// Loader loads and saves topic stores below a base directory.
type Loader struct {
	dir string
}

// NewLoader creates a store loader rooted at dir.
func NewLoader(dir string) *Loader { return &Loader{dir: dir} }

// Load returns the ordered record sequence of the topic's store. It tries
// <dir>/<topicID>.json first, then <dir>/<topicID>.csv. A store file
// disappearing between calls is reported as ErrStoreNotFound, never a crash.
func (l *Loader) Load(topicID string) ([]domain.Record, error) {
	jsonPath := filepath.Join(l.dir, topicID+".json")
	if _, err := os.Stat(jsonPath); err == nil {
		return l.loadJSON(jsonPath)
	}
	csvPath := filepath.Join(l.dir, topicID+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return l.loadCSV(csvPath)
	}
	return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, topicID)
}

// Exists reports whether any store file is present for the topic id.
func (l *Loader) Exists(topicID string) bool {
	for _, ext := range []string{".json", ".csv"} {
		if _, err := os.Stat(filepath.Join(l.dir, topicID+ext)); err == nil {
			return true
		}
	}
	return false
}

func (l *Loader) loadJSON(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStoreEmpty, path)
	}
	hasField := false
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		raw, ok := row[EmbeddingField]
		if ok {
			hasField = true
		}
		delete(row, EmbeddingField)
		records = append(records, domain.Record{
			Fields:    row,
			Embedding: normalizeVector(raw),
		})
	}
	if !hasField {
		return nil, fmt.Errorf("%w: %s", ErrMissingEmbeddingField, path)
	}
	return records, nil
}

func (l *Loader) loadCSV(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(rows) == 0 || len(rows) == 1 {
		return nil, fmt.Errorf("%w: %s", ErrStoreEmpty, path)
	}
	header := rows[0]
	embIdx := -1
	for i, col := range header {
		if col == EmbeddingField {
			embIdx = i
		}
	}
	if embIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEmbeddingField, path)
	}
	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		var vec []float64
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if i == embIdx {
				vec = normalizeVector(row[i])
				continue
			}
			fields[col] = row[i]
		}
		records = append(records, domain.Record{Fields: fields, Embedding: vec})
	}
	return records, nil
}

// Save writes the records as both <topicID>.json and <topicID>.csv, each via
// a temp file renamed into place so readers only ever see a complete store.
func (l *Loader) Save(topicID string, records []domain.Record) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	if err := l.saveJSON(topicID, records); err != nil {
		return err
	}
	return l.saveCSV(topicID, records)
}

func (l *Loader) saveJSON(topicID string, records []domain.Record) error {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			row[k] = v
		}
		row[EmbeddingField] = rec.Embedding
		rows = append(rows, row)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(l.dir, topicID+".json"), data)
}

func (l *Loader) saveCSV(topicID string, records []domain.Record) error {
	header := fieldColumns(records)
	header = append(header, EmbeddingField)

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		for _, col := range header[:len(header)-1] {
			row = append(row, fmt.Sprint(rec.Fields[col]))
		}
		row = append(row, formatVector(rec.Embedding))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(l.dir, topicID+".csv"), []byte(sb.String()))
}

func fieldColumns(records []domain.Record) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, rec := range records {
		for k := range rec.Fields {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// normalizeVector coerces the raw embedding cell into a numeric vector.
// Accepted shapes: []float64, []any of numbers, or a stringified array like
// "[0.1, 0.2]". Anything else yields nil, which excludes the row from
// ranking without failing the load.
func normalizeVector(raw any) []float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case []float64:
		if len(v) == 0 {
			return nil
		}
		return v
	case []any:
		vec := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil
			}
			vec = append(vec, f)
		}
		if len(vec) == 0 {
			return nil
		}
		return vec
	case string:
		return parseVectorString(v)
	default:
		return nil
	}
}

func parseVectorString(s string) []float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		vec = append(vec, f)
	}
	return vec
}

func formatVector(vec []float64) string {
	if len(vec) == 0 {
		return "[]"
	}
	parts := make([]string, len(vec))
	for i, f := range vec {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
