// Package embedding defines the failure contract shared by the embedding
// provider adapters.
package embedding

import "errors"

var (
	// ErrNotConfigured is returned before any remote call when the provider
	// has no usable API key.
	ErrNotConfigured = errors.New("embedding provider not configured")

	// ErrEmptyText is returned when the input is empty after trimming.
	ErrEmptyText = errors.New("empty text for embedding")
)
