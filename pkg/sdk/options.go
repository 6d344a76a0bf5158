package searchpad

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	qdrantURL    string
	qdrantAPIKey string

	openaiKey     string
	openaiBaseURL string

	embedModel string
	embedDims  int

	answerModel string
	maxTokens   int

	redisAddr     string
	redisPassword string
	settingsTTL   time.Duration

	logger *zap.Logger
}

// WithQdrant configures the search provider connection.
func WithQdrant(url, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.qdrantURL = url
		c.qdrantAPIKey = apiKey
	})
}

// WithOpenAI sets the OpenAI-compatible API credentials shared by the
// embedder and the answer streamer. baseURL may be empty for the
// default endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openaiKey = apiKey
		c.openaiBaseURL = baseURL
	})
}

// WithEmbedding sets the query vectorizer model. dims may be zero when
// the model's native dimension is wanted.
func WithEmbedding(model string, dims int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedModel = model
		c.embedDims = dims
	})
}

// WithAnswerModel sets the generative answer model.
func WithAnswerModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.answerModel = model
	})
}

// WithMaxAnswerTokens caps generative answers. Zero means no cap.
func WithMaxAnswerTokens(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = n
	})
}

// WithRedisSettings persists per-collection search settings in Redis.
// Without this option settings live in memory only.
func WithRedisSettings(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
		c.settingsTTL = ttl
	})
}

// WithLogger enables structured logging for client operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
