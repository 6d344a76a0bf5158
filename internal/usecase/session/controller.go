// Package session owns the active search state machine. One search is
// active at a time; a new submission bumps the generation counter and
// supersedes any in-flight request or open answer stream, whose late
// events are then discarded.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/domain"
	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
	"github.com/kailas-cloud/searchpad/internal/domain/search/mode"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/state"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
	"github.com/kailas-cloud/searchpad/internal/domain/search/vector"
	"github.com/kailas-cloud/searchpad/internal/metrics"
	"github.com/kailas-cloud/searchpad/internal/repository/points"
	"github.com/kailas-cloud/searchpad/internal/repository/settings"
)

// defaultTopK applies when a filter-only scan does not specify a limit.
const defaultTopK = 10

// Controller handles search submission, pagination, and the generative
// answer stream for a single session.
type Controller struct {
	provider Provider
	store    settings.Store
	embed    Embedder
	streamer Streamer
	logger   *zap.Logger

	mu           sync.Mutex
	generation   uint64
	st           state.State
	lastQuery    *points.Query
	cancelStream context.CancelFunc
}

// New creates a session controller.
func New(
	provider Provider, store settings.Store,
	embed Embedder, streamer Streamer, logger *zap.Logger,
) *Controller {
	return &Controller{
		provider: provider,
		store:    store,
		embed:    embed,
		streamer: streamer,
		logger:   logger,
		st:       state.State{Phase: state.Idle},
	}
}

// Params describes one search submission. Fields outside the chosen
// mode are ignored, except Conditions, which act as an optional filter
// for semantic, vector, and generative searches.
type Params struct {
	Collection string
	Mode       mode.Mode

	// Query is the search text (semantic) or the question (generative).
	Query string
	// RawVector is the comma/whitespace separated vector input.
	RawVector string
	// CollectionConfig is the collection's vector configuration,
	// consulted for the expected dimension when known.
	CollectionConfig map[string]any

	Conditions []filter.Condition
	Combine    filter.CombineMode

	TopK         int
	ContextLimit int
	// ProviderID selects the answer model for generative mode.
	ProviderID          string
	EmbeddingProviderID string
	MaxTokens           int

	WithPayload bool
	WithVector  bool
}

// prepared carries the validated inputs from validate to the per-mode
// submit path.
type prepared struct {
	vector []float32
	filter *filter.Payload
}

// Submit validates the parameters, supersedes any in-flight search,
// and issues the query. Validation failures leave the current state
// untouched and never reach the provider. Non-generative modes return
// in a terminal phase; generative mode returns in the streaming phase
// while a background goroutine folds answer events into the state.
func (c *Controller) Submit(ctx context.Context, p Params) (state.State, error) {
	timer := prometheus.NewTimer(metrics.SearchRequestDuration.WithLabelValues(string(p.Mode)))
	defer timer.ObserveDuration()

	prep, err := validate(p)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(p.Mode), "invalid").Inc()
		return c.State(), err
	}

	gen := c.begin(p.Mode)

	var st state.State
	switch p.Mode {
	case mode.Semantic:
		st, err = c.submitSemantic(ctx, gen, p, prep)
	case mode.Vector:
		st, err = c.submitVector(ctx, gen, p, prep)
	case mode.Filter:
		st, err = c.submitFilter(ctx, gen, p, prep)
	case mode.Generative:
		st, err = c.submitGenerative(ctx, gen, p, prep)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(p.Mode), status).Inc()
	return st, err
}

// validate checks the parameters for the chosen mode before any I/O.
func validate(p Params) (prepared, error) {
	var prep prepared
	if !p.Mode.IsValid() {
		return prep, domain.NewValidation("mode", "unknown search mode %q", string(p.Mode))
	}

	switch p.Mode {
	case mode.Semantic:
		if strings.TrimSpace(p.Query) == "" {
			return prep, domain.NewValidation("query", "query text is required")
		}
		if p.TopK <= 0 {
			return prep, domain.NewValidation("top_k", "must be positive, got %d", p.TopK)
		}
	case mode.Vector:
		vec, err := vector.Parse(p.RawVector)
		if err != nil {
			return prep, err
		}
		if dim, ok := vector.DimensionFromConfig(p.CollectionConfig); ok {
			if err = vector.Validate(vec, dim); err != nil {
				return prep, err
			}
		}
		if p.TopK <= 0 {
			return prep, domain.NewValidation("top_k", "must be positive, got %d", p.TopK)
		}
		prep.vector = vec
	case mode.Filter:
		payload, err := filter.Build(p.Conditions, p.Combine)
		if err != nil {
			return prep, err
		}
		prep.filter = &payload
	case mode.Generative:
		if strings.TrimSpace(p.Query) == "" {
			return prep, domain.NewValidation("query", "a question is required")
		}
		if p.TopK <= 0 {
			return prep, domain.NewValidation("top_k", "must be positive, got %d", p.TopK)
		}
		if p.ContextLimit <= 0 {
			return prep, domain.NewValidation("context_limit", "must be positive, got %d", p.ContextLimit)
		}
		if p.ProviderID == "" {
			return prep, domain.NewValidation("provider_id", "an answer provider must be selected")
		}
	}

	if p.Mode != mode.Filter && hasConditions(p.Conditions) {
		payload, err := filter.Build(p.Conditions, p.Combine)
		if err != nil {
			return prep, err
		}
		prep.filter = &payload
	}
	return prep, nil
}

func hasConditions(conditions []filter.Condition) bool {
	for _, cnd := range conditions {
		if strings.TrimSpace(cnd.Field) != "" {
			return true
		}
	}
	return false
}

// begin supersedes any in-flight search and installs a fresh state.
func (c *Controller) begin(m mode.Mode) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
	c.lastQuery = nil
	c.st = state.New(c.generation, m)
	return c.generation
}

func (c *Controller) submitSemantic(
	ctx context.Context, gen uint64, p Params, prep prepared,
) (state.State, error) {
	emb, err := c.embed.Embed(ctx, p.Query)
	if err != nil {
		return c.fail(gen, fmt.Errorf("vectorize query: %w", err))
	}

	st, err := c.runQuery(ctx, gen, points.Query{
		Collection:  p.Collection,
		Vector:      emb.Embedding,
		Filter:      prep.filter,
		Limit:       p.TopK,
		WithPayload: p.WithPayload,
		WithVector:  p.WithVector,
	})
	if err == nil {
		c.persistSettings(ctx, p)
	}
	return st, err
}

func (c *Controller) submitVector(
	ctx context.Context, gen uint64, p Params, prep prepared,
) (state.State, error) {
	return c.runQuery(ctx, gen, points.Query{
		Collection:  p.Collection,
		Vector:      prep.vector,
		Filter:      prep.filter,
		Limit:       p.TopK,
		WithPayload: p.WithPayload,
		WithVector:  p.WithVector,
	})
}

func (c *Controller) submitFilter(
	ctx context.Context, gen uint64, p Params, prep prepared,
) (state.State, error) {
	limit := p.TopK
	if limit <= 0 {
		limit = defaultTopK
	}
	return c.runQuery(ctx, gen, points.Query{
		Collection:  p.Collection,
		Filter:      prep.filter,
		Limit:       limit,
		WithPayload: p.WithPayload,
		WithVector:  p.WithVector,
	})
}

// submitGenerative runs the retrieval query, then hands the answer
// stream to a background consumer. The stream outlives the submission
// request, so it is detached from the caller's cancellation.
func (c *Controller) submitGenerative(
	ctx context.Context, gen uint64, p Params, prep prepared,
) (state.State, error) {
	emb, err := c.embed.Embed(ctx, p.Query)
	if err != nil {
		return c.fail(gen, fmt.Errorf("vectorize question: %w", err))
	}

	page, err := c.provider.Search(ctx, points.Query{
		Collection:  p.Collection,
		Vector:      emb.Embedding,
		Filter:      prep.filter,
		Limit:       p.ContextLimit,
		WithPayload: true,
	})
	if err != nil {
		return c.fail(gen, err)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, err := c.streamer.Stream(streamCtx, stream.Request{
		Generation:  gen,
		Question:    p.Query,
		Context:     page.Results,
		QueryVector: emb.Embedding,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		cancel()
		return c.fail(gen, err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		cancel()
		return c.State(), nil
	}
	c.st.Phase = state.Streaming
	c.st.Results = page.Results
	c.st.Scores = scoresOf(page.Results)
	c.cancelStream = cancel
	snapshot := c.st
	c.mu.Unlock()

	go c.consume(gen, events)

	c.persistSettings(ctx, p)
	return snapshot, nil
}

// consume folds answer events into the state until the channel closes.
// Events of a superseded generation are counted and dropped.
func (c *Controller) consume(gen uint64, events <-chan stream.Event) {
	asm := state.NewAssembler(gen)
	for ev := range events {
		c.mu.Lock()
		if c.generation != gen || ev.Generation != gen {
			c.mu.Unlock()
			metrics.StaleEventsTotal.Inc()
			continue
		}
		c.st = asm.Apply(c.st, ev)
		c.mu.Unlock()
	}
}

// runQuery executes one provider page and folds it into the state,
// unless a newer submission superseded this generation meanwhile.
func (c *Controller) runQuery(ctx context.Context, gen uint64, q points.Query) (state.State, error) {
	page, err := c.provider.Search(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return c.st, nil
	}
	if err != nil {
		c.st.Phase = state.Errored
		c.st.Message = err.Error()
		return c.st, err
	}

	c.st.Results = page.Results
	c.st.Scores = scoresOf(page.Results)
	c.st.NextOffset = page.NextOffset
	c.st.Phase = state.Completed
	c.lastQuery = &q
	return c.st, nil
}

// fail transitions the current generation to errored.
func (c *Controller) fail(gen uint64, err error) (state.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.st.Phase = state.Errored
		c.st.Message = err.Error()
	}
	return c.st, err
}

// LoadMore re-issues the last query with the stored cursor and appends
// the next page in arrival order. It fails with ErrNoCursor when the
// last response reported no further page.
func (c *Controller) LoadMore(ctx context.Context) (state.State, error) {
	c.mu.Lock()
	if c.lastQuery == nil || c.st.NextOffset == nil {
		c.mu.Unlock()
		metrics.LoadMoreTotal.WithLabelValues("no_cursor").Inc()
		return c.State(), domain.ErrNoCursor
	}
	gen := c.generation
	q := *c.lastQuery
	q.Offset = *c.st.NextOffset
	c.mu.Unlock()

	page, err := c.provider.Search(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		metrics.LoadMoreTotal.WithLabelValues("stale").Inc()
		return c.st, nil
	}
	if err != nil {
		metrics.LoadMoreTotal.WithLabelValues("error").Inc()
		c.st.Phase = state.Errored
		c.st.Message = err.Error()
		return c.st, err
	}

	c.st.Results = append(c.st.Results, page.Results...)
	if c.st.Scores == nil {
		c.st.Scores = make(map[string]float64, len(page.Results))
	}
	for id, s := range scoresOf(page.Results) {
		c.st.Scores[id] = s
	}
	c.st.NextOffset = page.NextOffset
	c.lastQuery = &q
	metrics.LoadMoreTotal.WithLabelValues("ok").Inc()
	return c.st, nil
}

// Cancel supersedes the in-flight search. The open answer stream, if
// any, is detached; its late events are discarded.
func (c *Controller) Cancel() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
	if c.st.Phase == state.Searching || c.st.Phase == state.Streaming {
		c.st.Phase = state.Idle
	}
	return c.st
}

// State returns a snapshot of the active search state.
func (c *Controller) State() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Settings returns the persisted defaults for a collection, nil when
// none have been saved.
func (c *Controller) Settings(ctx context.Context, collection string) (*settings.SearchSettings, error) {
	return c.store.Get(ctx, collection)
}

// FieldPaths lists filterable payload paths sampled from the current
// result set.
func (c *Controller) FieldPaths() []string {
	st := c.State()
	pts := make([]map[string]any, 0, len(st.Results))
	for i := range st.Results {
		pts = append(pts, map[string]any{
			"id":      st.Results[i].ID(),
			"payload": st.Results[i].Payload(),
		})
	}
	return filter.CollectFieldPaths(pts)
}

// persistSettings saves the submission's settings as the collection's
// defaults. Best effort: a write failure never fails the search.
func (c *Controller) persistSettings(ctx context.Context, p Params) {
	s := settings.SearchSettings{
		TopK:                p.TopK,
		ProviderID:          p.ProviderID,
		ContextLimit:        p.ContextLimit,
		EmbeddingProviderID: p.EmbeddingProviderID,
		WithPayload:         p.WithPayload,
		WithVector:          p.WithVector,
	}
	if err := c.store.Set(ctx, p.Collection, s); err != nil {
		c.logger.Warn("persist search settings",
			zap.String("collection", p.Collection), zap.Error(err))
	}
}

func scoresOf(results []result.Result) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for i := range results {
		if s := results[i].Score(); s != nil {
			scores[results[i].ID()] = *s
		}
	}
	return scores
}
