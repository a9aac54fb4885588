// Package retriever ranks a topic's records against a question and returns
// the top-K as context for generation.
package retriever

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"macgpt/internal/domain"
	"macgpt/internal/similarity"
)

// DefaultTopK is used when the caller passes a non-positive limit.
const DefaultTopK = 7

// Retriever loads a topic store and ranks its records by similarity to the
// question embedding.
type Retriever struct {
	embedder domain.Embedder
	loader   domain.StoreLoader
	log      *zap.Logger
}

// New creates a retriever over the given embedder and store loader.
func New(embedder domain.Embedder, loader domain.StoreLoader, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{embedder: embedder, loader: loader, log: log}
}

// Retrieve returns the topK records of the topic's store most similar to the
// question, ordered by descending similarity with ties kept in store order.
// Records whose embedding is absent, empty, or malformed are skipped, never
// fatal. Store-level failures (not found, empty, schema without the embedding
// field) propagate to the caller. When no similarity is computable the result
// is an empty slice and a nil error; the caller substitutes canned context.
// Embeddings are stripped from the returned records.
func (r *Retriever) Retrieve(ctx context.Context, question, topicID string, topK int) ([]domain.Record, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	records, err := r.loader.Load(topicID)
	if err != nil {
		return nil, err
	}
	qvec, err := r.embedder.Embed(ctx, question, domain.TaskQuery)
	if err != nil {
		return nil, err
	}

	scored := make([]domain.ScoredRecord, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			skipped++
			continue
		}
		score, ok := similarity.Cosine(qvec, rec.Embedding)
		if !ok {
			skipped++
			continue
		}
		scored = append(scored, domain.ScoredRecord{Score: score, Record: rec})
	}
	if skipped > 0 {
		r.log.Debug("records skipped during ranking",
			zap.String("topic", topicID), zap.Int("skipped", skipped))
	}
	if len(scored) == 0 {
		r.log.Warn("no usable similarities in topic store", zap.String("topic", topicID))
		return []domain.Record{}, nil
	}

	// Stable keeps store order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > len(scored) {
		topK = len(scored)
	}

	out := make([]domain.Record, 0, topK)
	for _, sr := range scored[:topK] {
		out = append(out, domain.Record{Fields: sr.Record.Fields})
	}
	r.log.Info("context retrieved",
		zap.String("topic", topicID), zap.Int("records", len(out)))
	return out, nil
}
