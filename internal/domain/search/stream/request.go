package stream

import "github.com/kailas-cloud/searchpad/internal/domain/search/result"

// Request carries a generative question together with its retrieval
// context points.
type Request struct {
	Generation  uint64
	Question    string
	Context     []result.Result
	QueryVector []float32
	MaxTokens   int
}
