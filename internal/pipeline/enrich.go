// Package pipeline enriches extracted syllabus records with document
// embeddings and writes them out as topic stores.
package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"macgpt/internal/domain"
	"macgpt/internal/store"
)

// Enricher embeds every record of an extracted data file and saves the
// result as a topic store in both supported formats.
type Enricher struct {
	embedder domain.Embedder
	loader   *store.Loader
	log      *zap.Logger
}

// NewEnricher creates an enricher writing stores through the given loader.
func NewEnricher(embedder domain.Embedder, loader *store.Loader, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{embedder: embedder, loader: loader, log: log}
}

// Result reports how many records were processed and how many embedded.
type Result struct {
	Total    int
	Embedded int
}

// EnrichStore reads records from inPath (.json or .csv), embeds each row's
// field rendering with the document task type and saves the store under
// topicID. Rows whose embedding fails are written with an empty vector and
// skipped later by the retriever; a single bad row never aborts the run.
func (e *Enricher) EnrichStore(ctx context.Context, inPath, topicID string) (Result, error) {
	rows, err := readRows(inPath)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("no records in %s", inPath)
	}

	records := make([]domain.Record, 0, len(rows))
	embedded := 0
	for i, row := range rows {
		text := renderRow(row)
		vec, err := e.embedder.Embed(ctx, text, domain.TaskDocument)
		if err != nil {
			e.log.Warn("row embedding failed, continuing",
				zap.String("topic", topicID), zap.Int("row", i), zap.Error(err))
			vec = nil
		} else {
			embedded++
		}
		records = append(records, domain.Record{Fields: row, Embedding: vec})
	}

	if err := e.loader.Save(topicID, records); err != nil {
		return Result{}, err
	}
	e.log.Info("topic store written",
		zap.String("topic", topicID), zap.Int("records", len(records)), zap.Int("embedded", embedded))
	return Result{Total: len(records), Embedded: embedded}, nil
}

// renderRow flattens a record's fields into the text that gets embedded:
// one "key: value" line per field, keys sorted for determinism.
func renderRow(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, fields[k]))
	}
	return strings.Join(lines, "\n")
}

func readRows(path string) ([]map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return rows, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		all, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if len(all) < 2 {
			return nil, nil
		}
		header := all[0]
		rows := make([]map[string]any, 0, len(all)-1)
		for _, rec := range all[1:] {
			row := make(map[string]any, len(header))
			for i, col := range header {
				if i < len(rec) {
					row[col] = rec[i]
				}
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s (use .json or .csv)", path)
	}
}
