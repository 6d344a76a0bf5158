// Package settings persists last-used search settings per collection.
package settings

import "context"

// SearchSettings are the per-collection defaults restored on the next
// session for that collection.
type SearchSettings struct {
	TopK                int    `json:"top_k"`
	ProviderID          string `json:"provider_id"`
	ContextLimit        int    `json:"context_limit"`
	EmbeddingProviderID string `json:"embedding_provider_id"`
	WithPayload         bool   `json:"with_payload"`
	WithVector          bool   `json:"with_vector"`
}

// Store is the persistence contract. Get returns (nil, nil) when no
// settings have been saved for the collection.
type Store interface {
	Get(ctx context.Context, collectionID string) (*SearchSettings, error)
	Set(ctx context.Context, collectionID string, s SearchSettings) error
}
