package result

// Result is a single search hit.
type Result struct {
	id      string
	payload map[string]any
	vector  []float32
	score   *float64
}

// New creates a search result. vector and score may be absent.
func New(id string, payload map[string]any, vector []float32, score *float64) Result {
	return Result{id: id, payload: payload, vector: vector, score: score}
}

// ID returns the point identifier.
func (r *Result) ID() string { return r.id }

// Payload returns the point payload.
func (r *Result) Payload() map[string]any { return r.payload }

// Vector returns the point vector, nil when not requested.
func (r *Result) Vector() []float32 { return r.vector }

// Score returns the similarity score, nil for filter-only scans.
func (r *Result) Score() *float64 { return r.score }
