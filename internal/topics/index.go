package topics

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"macgpt/internal/domain"
	"macgpt/internal/similarity"
)

// noCandidate sits below the valid similarity range so that any computed
// score, including 0, beats it.
const noCandidate = -2.0

// Index owns the representative-embedding cache for the topic catalog and
// classifies questions against it. The cache is populated lazily, once per
// topic per process; concurrent warm-ups share a single provider call per
// topic. Entries are never evicted.
type Index struct {
	topics   []domain.Topic
	embedder domain.Embedder
	log      *zap.Logger

	mu    sync.RWMutex
	cache map[string][]float64
	group singleflight.Group
}

// NewIndex creates an index over the given topics.
func NewIndex(topics []domain.Topic, embedder domain.Embedder, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		topics:   topics,
		embedder: embedder,
		log:      log,
		cache:    make(map[string][]float64),
	}
}

// Topics returns the catalog in index order.
func (ix *Index) Topics() []domain.Topic { return ix.topics }

// InitEmbeddings computes and caches the representative embedding of every
// topic that does not have one yet. Already-cached topics are skipped, so
// repeated calls cost nothing. It returns true iff at least one topic holds a
// usable embedding afterward; topics whose embedding fails are simply left
// out of later classification.
func (ix *Index) InitEmbeddings(ctx context.Context) bool {
	usable := 0
	for _, t := range ix.topics {
		if ix.cached(t.ID) != nil {
			usable++
			continue
		}
		vec, err, _ := ix.group.Do(t.ID, func() (any, error) {
			if v := ix.cached(t.ID); v != nil {
				return v, nil
			}
			v, err := ix.embedder.Embed(ctx, t.Description, domain.TaskDocument)
			if err != nil {
				return nil, err
			}
			ix.mu.Lock()
			ix.cache[t.ID] = v
			ix.mu.Unlock()
			return v, nil
		})
		if err != nil {
			ix.log.Warn("topic embedding failed, topic excluded from classification",
				zap.String("topic", t.ID), zap.Error(err))
			continue
		}
		if v, ok := vec.([]float64); ok && len(v) > 0 {
			usable++
		}
	}
	if usable == 0 {
		ix.log.Error("no topic embeddings could be generated")
		return false
	}
	ix.log.Info("topic embeddings ready",
		zap.Int("usable", usable), zap.Int("total", len(ix.topics)))
	return true
}

// Classify selects the topic whose representative embedding is most similar
// to the question. It returns "" when classification is not possible: blank
// question (checked before any provider call), empty cache, or a failed
// question embedding. Classification failure is an expected outcome, not a
// fault, so no error is returned.
func (ix *Index) Classify(ctx context.Context, question string) string {
	if strings.TrimSpace(question) == "" {
		ix.log.Warn("classification skipped: empty question")
		return ""
	}
	if !ix.hasCached() {
		ix.log.Warn("classification skipped: no topic embeddings cached")
		return ""
	}
	qvec, err := ix.embedder.Embed(ctx, question, domain.TaskQuery)
	if err != nil {
		ix.log.Warn("classification skipped: question embedding failed", zap.Error(err))
		return ""
	}

	selected := ""
	best := noCandidate
	for _, t := range ix.topics {
		tvec := ix.cached(t.ID)
		if tvec == nil {
			continue
		}
		score, ok := similarity.Cosine(qvec, tvec)
		if !ok {
			ix.log.Warn("similarity not computable for topic", zap.String("topic", t.ID))
			continue
		}
		// Strictly greater keeps the first topic on ties (catalog order).
		if score > best {
			best = score
			selected = t.ID
		}
	}
	if selected == "" {
		ix.log.Warn("no topic could be selected for question")
		return ""
	}
	ix.log.Info("topic selected",
		zap.String("topic", selected), zap.Float64("similarity", best))
	return selected
}

func (ix *Index) cached(topicID string) []float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cache[topicID]
}

func (ix *Index) hasCached() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.cache) > 0
}
