package session

import (
	"context"

	"github.com/kailas-cloud/searchpad/internal/domain"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
	"github.com/kailas-cloud/searchpad/internal/repository/points"
)

// Provider executes collection queries against the search backend.
type Provider interface {
	Search(ctx context.Context, q points.Query) (*points.Page, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Streamer produces the generative answer event stream for a question
// and its retrieval context. The returned channel is closed after the
// terminal event.
type Streamer interface {
	Stream(ctx context.Context, req stream.Request) (<-chan stream.Event, error)
}
