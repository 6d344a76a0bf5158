package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/domain"
	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
	"github.com/kailas-cloud/searchpad/internal/domain/search/mode"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/state"
	"github.com/kailas-cloud/searchpad/internal/usecase/session"
)

// Error codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNoCursor         = "no_cursor"
	codeNotFound         = "not_found"
	codeProviderError    = "provider_error"
	codeStreamError      = "stream_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger reports readiness of an external collaborator.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Defaults are applied to submissions that omit the corresponding
// parameter and have no persisted settings for the collection.
type Defaults struct {
	TopK            int
	ContextLimit    int
	MaxPageSize     int
	MaxAnswerTokens int
}

// Server exposes the search session API over chi.
type Server struct {
	sessions      *sessionRegistry
	defaults      Defaults
	checks        map[string]Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. factory builds one session
// controller per collection; checks feed the health endpoint.
func NewServer(
	factory func() *session.Controller,
	defaults Defaults,
	checks map[string]Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sessions: newSessionRegistry(factory),
		defaults: defaults,
		checks:   checks,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNoCursor, http.StatusConflict, codeNoCursor),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrStream, http.StatusBadGateway, codeStreamError),
		sentinelHandler(domain.ErrProvider, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// sessionRegistry holds one controller per collection, created lazily.
type sessionRegistry struct {
	mu      sync.Mutex
	m       map[string]*session.Controller
	factory func() *session.Controller
}

func newSessionRegistry(factory func() *session.Controller) *sessionRegistry {
	return &sessionRegistry{m: make(map[string]*session.Controller), factory: factory}
}

func (r *sessionRegistry) get(collection string) *session.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[collection]
	if !ok {
		c = r.factory()
		r.m[collection] = c
	}
	return c
}

// Routes mounts all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/filter/describe", s.DescribeFilter)
		r.Route("/collections/{collection}/search", func(r chi.Router) {
			r.Post("/", s.SubmitSearch)
			r.Get("/", s.GetSearchState)
			r.Post("/more", s.LoadMore)
			r.Post("/cancel", s.CancelSearch)
			r.Get("/fields", s.FieldPaths)
		})
		r.Get("/collections/{collection}/settings", s.GetSettings)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type conditionRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type searchRequest struct {
	Mode                string             `json:"mode"`
	Query               string             `json:"query"`
	Vector              string             `json:"vector"`
	Conditions          []conditionRequest `json:"conditions"`
	Combine             string             `json:"combine"`
	TopK                int                `json:"top_k"`
	ContextLimit        int                `json:"context_limit"`
	ProviderID          string             `json:"provider_id"`
	EmbeddingProviderID string             `json:"embedding_provider_id"`
	MaxTokens           int                `json:"max_tokens"`
	WithPayload         *bool              `json:"with_payload"`
	WithVector          bool               `json:"with_vector"`
	CollectionConfig    map[string]any     `json:"collection_config"`
}

// SubmitSearch handles POST /collections/{collection}/search.
func (s *Server) SubmitSearch(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conditions, err := conditionsFromRequest(req.Conditions)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctrl := s.sessions.get(collection)
	params := session.Params{
		Collection:          collection,
		Mode:                mode.Mode(req.Mode),
		Query:               req.Query,
		RawVector:           req.Vector,
		CollectionConfig:    req.CollectionConfig,
		Conditions:          conditions,
		Combine:             combineFromRequest(req.Combine),
		TopK:                req.TopK,
		ContextLimit:        req.ContextLimit,
		ProviderID:          req.ProviderID,
		EmbeddingProviderID: req.EmbeddingProviderID,
		MaxTokens:           req.MaxTokens,
		WithVector:          req.WithVector,
		WithPayload:         true,
	}
	if req.WithPayload != nil {
		params.WithPayload = *req.WithPayload
	}
	s.applyDefaults(r.Context(), ctrl, collection, &params)

	st, err := ctrl.Submit(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stateToResponse(st, conditions, params.Combine))
}

// applyDefaults fills omitted parameters from the collection's persisted
// settings, then from the configured defaults, and clamps the page size.
func (s *Server) applyDefaults(
	ctx context.Context, ctrl *session.Controller, collection string, p *session.Params,
) {
	saved, err := ctrl.Settings(ctx, collection)
	if err != nil {
		s.logger.Warn("load search settings", zap.String("collection", collection), zap.Error(err))
	}

	if p.TopK <= 0 {
		if saved != nil && saved.TopK > 0 {
			p.TopK = saved.TopK
		} else {
			p.TopK = s.defaults.TopK
		}
	}
	if p.TopK > s.defaults.MaxPageSize {
		p.TopK = s.defaults.MaxPageSize
	}

	if p.ContextLimit <= 0 {
		if saved != nil && saved.ContextLimit > 0 {
			p.ContextLimit = saved.ContextLimit
		} else {
			p.ContextLimit = s.defaults.ContextLimit
		}
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = s.defaults.MaxAnswerTokens
	}
	if p.ProviderID == "" && saved != nil {
		p.ProviderID = saved.ProviderID
	}
	if p.EmbeddingProviderID == "" && saved != nil {
		p.EmbeddingProviderID = saved.EmbeddingProviderID
	}
}

// GetSearchState handles GET /collections/{collection}/search.
func (s *Server) GetSearchState(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.get(chi.URLParam(r, "collection"))
	writeJSON(w, http.StatusOK, stateToResponse(ctrl.State(), nil, ""))
}

// LoadMore handles POST /collections/{collection}/search/more.
func (s *Server) LoadMore(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.get(chi.URLParam(r, "collection"))

	st, err := ctrl.LoadMore(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stateToResponse(st, nil, ""))
}

// CancelSearch handles POST /collections/{collection}/search/cancel.
func (s *Server) CancelSearch(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.get(chi.URLParam(r, "collection"))
	writeJSON(w, http.StatusOK, stateToResponse(ctrl.Cancel(), nil, ""))
}

// FieldPaths handles GET /collections/{collection}/search/fields.
func (s *Server) FieldPaths(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.get(chi.URLParam(r, "collection"))

	paths := ctrl.FieldPaths()
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

// GetSettings handles GET /collections/{collection}/settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	ctrl := s.sessions.get(collection)

	saved, err := ctrl.Settings(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if saved == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "no settings saved for collection")
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

type describeRequest struct {
	Conditions []conditionRequest `json:"conditions"`
	Combine    string             `json:"combine"`
}

// DescribeFilter handles POST /filter/describe.
func (s *Server) DescribeFilter(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conditions, err := conditionsFromRequest(req.Conditions)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"description": filter.Describe(conditions, combineFromRequest(req.Combine)),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checks))
	healthy := true
	for name, p := range s.checks {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func conditionsFromRequest(cs []conditionRequest) ([]filter.Condition, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, 0, len(cs))
	for _, c := range cs {
		op := filter.Operator(c.Operator)
		if !op.IsValid() {
			return nil, domain.NewValidation(c.Field, "unknown operator %q", c.Operator)
		}
		out = append(out, filter.NewCondition(c.Field, op, c.Value))
	}
	return out, nil
}

func combineFromRequest(combine string) filter.CombineMode {
	if combine == string(filter.CombineOr) {
		return filter.CombineOr
	}
	return filter.CombineAnd
}

type resultItem struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload,omitempty"`
	Vector  []float32      `json:"vector,omitempty"`
	Score   *float64       `json:"score,omitempty"`
}

type usageView struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type stateResponse struct {
	Generation    uint64             `json:"generation"`
	Mode          string             `json:"mode,omitempty"`
	Phase         string             `json:"phase"`
	Results       []resultItem       `json:"results"`
	Scores        map[string]float64 `json:"scores,omitempty"`
	NextOffset    *uint64            `json:"next_offset,omitempty"`
	Provider      string             `json:"provider,omitempty"`
	Model         string             `json:"model,omitempty"`
	Usage         *usageView         `json:"usage,omitempty"`
	Answer        string             `json:"answer,omitempty"`
	Message       string             `json:"message,omitempty"`
	FilterSummary string             `json:"filter_summary,omitempty"`
}

func stateToResponse(st state.State, conditions []filter.Condition, combine filter.CombineMode) stateResponse {
	resp := stateResponse{
		Generation: st.Generation,
		Mode:       string(st.Mode),
		Phase:      string(st.Phase),
		Results:    resultsToItems(st.Results),
		Scores:     st.Scores,
		NextOffset: st.NextOffset,
		Provider:   st.Provider,
		Model:      st.Model,
		Answer:     st.Answer,
		Message:    st.Message,
	}
	if st.Usage.TotalTokens > 0 || st.Usage.PromptTokens > 0 || st.Usage.CompletionTokens > 0 {
		resp.Usage = &usageView{
			PromptTokens:     st.Usage.PromptTokens,
			CompletionTokens: st.Usage.CompletionTokens,
			TotalTokens:      st.Usage.TotalTokens,
		}
	}
	if len(conditions) > 0 {
		resp.FilterSummary = filter.Describe(conditions, combine)
	}
	return resp
}

func resultsToItems(results []result.Result) []resultItem {
	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultItem{
			ID:      results[i].ID(),
			Payload: results[i].Payload(),
			Vector:  results[i].Vector(),
			Score:   results[i].Score(),
		}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNoCursor,
		domain.ErrNotFound,
		domain.ErrStream,
		domain.ErrProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
