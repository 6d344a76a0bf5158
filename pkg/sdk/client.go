package searchpad

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
	"github.com/kailas-cloud/searchpad/internal/domain/search/mode"
	"github.com/kailas-cloud/searchpad/internal/domain/search/vector"
	"github.com/kailas-cloud/searchpad/internal/repository/points"
	"github.com/kailas-cloud/searchpad/internal/repository/settings"
	openaiTransport "github.com/kailas-cloud/searchpad/internal/transport/openai"
	"github.com/kailas-cloud/searchpad/internal/usecase/session"
)

// Params describes one search submission.
type Params = session.Params

// Condition is a single filter condition.
type Condition = filter.Condition

// Search modes.
const (
	ModeSemantic   = mode.Semantic
	ModeFilter     = mode.Filter
	ModeVector     = mode.Vector
	ModeGenerative = mode.Generative
)

// Combine modes for positive filter clauses.
const (
	CombineAnd = filter.CombineAnd
	CombineOr  = filter.CombineOr
)

// Filter operators.
const (
	OpEq       = filter.OpEq
	OpNeq      = filter.OpNeq
	OpContains = filter.OpContains
	OpGt       = filter.OpGt
	OpGte      = filter.OpGte
	OpLt       = filter.OpLt
	OpLte      = filter.OpLte
)

// Client is the searchpad SDK entry point. Connections are established
// lazily on the first operation.
type Client struct {
	provider *points.Repo
	store    settings.Store
	embedder *openaiTransport.Embedder
	streamer *openaiTransport.Streamer
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session.Controller

	closeStore func()
}

// New creates a searchpad Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.qdrantURL == "" {
		return nil, errors.New("searchpad: qdrant url required (use WithQdrant)")
	}
	if cfg.embedModel == "" {
		return nil, errors.New("searchpad: embedding model required (use WithEmbedding)")
	}

	provider, err := points.New(points.Config{
		URL:    cfg.qdrantURL,
		APIKey: cfg.qdrantAPIKey,
	})
	if err != nil {
		return nil, err
	}

	var store settings.Store = settings.NewMemoryStore()
	var closeStore func()
	if cfg.redisAddr != "" {
		redisStore, err := settings.NewRedisStore(settings.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
			TTL:      cfg.settingsTTL,
		})
		if err != nil {
			_ = provider.Close()
			return nil, err
		}
		store = redisStore
		closeStore = redisStore.Close
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.openaiKey,
		BaseURL:    cfg.openaiBaseURL,
		Model:      cfg.embedModel,
		Dimensions: cfg.embedDims,
		Provider:   "openai",
		Logger:     cfg.logger,
	})
	streamer := openaiTransport.NewStreamer(&openaiTransport.StreamerConfig{
		APIKey:    cfg.openaiKey,
		BaseURL:   cfg.openaiBaseURL,
		Model:     cfg.answerModel,
		MaxTokens: cfg.maxTokens,
		Provider:  "openai",
		Logger:    cfg.logger,
	})

	return &Client{
		provider:   provider,
		store:      store,
		embedder:   embedder,
		streamer:   streamer,
		logger:     cfg.logger,
		sessions:   make(map[string]*session.Controller),
		closeStore: closeStore,
	}, nil
}

// Session returns the search session for a collection, creating it on
// first use. Sessions are independent; each holds its own active
// search state.
func (c *Client) Session(collection string) *session.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[collection]
	if !ok {
		s = session.New(c.provider, c.store, c.embedder, c.streamer, c.logger)
		c.sessions[collection] = s
	}
	return s
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c.closeStore != nil {
		c.closeStore()
	}
	return c.provider.Close()
}

// ParseVector parses a comma or whitespace separated vector input.
func ParseVector(raw string) ([]float32, error) {
	return vector.Parse(raw)
}

// VectorPreview renders a short preview of a vector for display.
func VectorPreview(vec []float32) string {
	return vector.Preview(vec)
}

// DescribeFilter renders conditions as a human-readable expression.
func DescribeFilter(conditions []Condition, combine filter.CombineMode) string {
	return filter.Describe(conditions, combine)
}

// NewCondition creates a filter condition with a fresh unique id.
func NewCondition(field string, op filter.Operator, value string) Condition {
	return filter.NewCondition(field, op, value)
}
