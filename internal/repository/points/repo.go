// Package points executes collection queries against Qdrant.
package points

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/searchpad/internal/domain"
	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
)

// Config holds Qdrant connection parameters.
type Config struct {
	// URL is the Qdrant server address (e.g. "https://example.qdrant.io:6334").
	URL string
	// APIKey is an optional API key.
	APIKey string
}

// Query is one page of a provider query. A nil Vector scans by filter
// only; a nil Filter queries the whole collection.
type Query struct {
	Collection  string
	Vector      []float32
	Filter      *filter.Payload
	Limit       int
	Offset      uint64
	WithPayload bool
	WithVector  bool
}

// Page is one page of provider results. NextOffset is set when a
// further page may exist.
type Page struct {
	Results    []result.Result
	NextOffset *uint64
}

// Repo queries points via the Qdrant gRPC client.
type Repo struct {
	client *qdrant.Client
}

// New connects to Qdrant.
func New(cfg Config) (*Repo, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	port := 6334
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Repo{client: client}, nil
}

// Search runs one page of a query and reports the next-page cursor.
func (r *Repo) Search(ctx context.Context, q Query) (*Page, error) {
	limit := uint64(q.Limit)
	offset := q.Offset

	req := &qdrant.QueryPoints{
		CollectionName: q.Collection,
		Limit:          &limit,
		Offset:         &offset,
		Filter:         toQdrantFilter(q.Filter),
		WithPayload:    qdrant.NewWithPayload(q.WithPayload),
		WithVectors:    qdrant.NewWithVectors(q.WithVector),
	}
	if q.Vector != nil {
		req.Query = qdrant.NewQuery(q.Vector...)
	}

	points, err := r.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrProvider, q.Collection, err)
	}

	scored := q.Vector != nil
	results := make([]result.Result, 0, len(points))
	for _, point := range points {
		results = append(results, toResult(point, scored))
	}

	page := &Page{Results: results}
	if len(points) == q.Limit {
		next := offset + uint64(len(points))
		page.NextOffset = &next
	}
	return page, nil
}

// Ping checks cluster availability.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (r *Repo) Close() error {
	return r.client.Close()
}

func toResult(point *qdrant.ScoredPoint, scored bool) result.Result {
	id := pointID(point.Id)

	var payload map[string]any
	if len(point.Payload) > 0 {
		payload = make(map[string]any, len(point.Payload))
		for k, v := range point.Payload {
			payload[k] = fromQdrantValue(v)
		}
	}

	var vec []float32
	if point.Vectors != nil {
		if v := point.Vectors.GetVector(); v != nil {
			vec = v.GetData()
		}
	}

	var score *float64
	if scored {
		s := float64(point.Score)
		score = &s
	}
	return result.New(id, payload, vec, score)
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
