package domain

import "context"

// TaskType tells the embedding model whether the text is a search query or an
// indexed document. Queries and documents are encoded asymmetrically.
type TaskType string

const (
	TaskQuery    TaskType = "RETRIEVAL_QUERY"
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// Topic is a fixed knowledge category with a human-authored description.
type Topic struct {
	ID          string
	Description string
}

// Record is one retrievable unit inside a topic store: an open bag of display
// fields plus the embedding vector the retriever ranks on.
type Record struct {
	Fields    map[string]any
	Embedding []float64
}

// ScoredRecord pairs a record with its similarity to the current question.
type ScoredRecord struct {
	Score  float64
	Record Record
}

// Reply is the raw outcome of a generation call. BlockReason is set when the
// provider's safety filter refused to answer.
type Reply struct {
	Text        string
	BlockReason string
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float64, error)
}

// Generator produces model output for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Reply, error)
}

// StoreLoader loads the ordered record sequence of one topic store.
type StoreLoader interface {
	Load(topicID string) ([]Record, error)
}
