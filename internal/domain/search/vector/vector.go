// Package vector parses and formats raw numeric vector input.
package vector

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/searchpad/internal/domain"
)

// PreviewComponents is the number of leading components shown in a preview.
const PreviewComponents = 6

// EmptyPreview is rendered for a vector with no components.
const EmptyPreview = "—"

// Parse converts free-text vector input into a numeric vector.
// Tokens are separated by commas and/or whitespace. Every token must be
// a finite number; the error names the first token that is not.
func Parse(raw string) ([]float32, error) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return nil, domain.NewValidation("vector", "vector input is empty")
	}

	vec := make([]float32, len(tokens))
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.NewValidation("vector", "invalid vector component %q", tok)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// Preview renders the first PreviewComponents components to three
// decimals, with an ellipsis marker when the vector is longer.
func Preview(vec []float32) string {
	if len(vec) == 0 {
		return EmptyPreview
	}

	n := len(vec)
	if n > PreviewComponents {
		n = PreviewComponents
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.FormatFloat(float64(vec[i]), 'f', 3, 32)
	}
	s := strings.Join(parts, ", ")
	if len(vec) > PreviewComponents {
		s += ", …"
	}
	return s
}

// dimensionKeys are the provider config keys that may carry the
// expected embedding dimensionality, in lookup order.
var dimensionKeys = []string{"dimensions", "dim", "size"}

// DimensionFromConfig reads the expected vector dimensionality from an
// embedding provider's configuration. The value may be stored as a
// number or a numeric string. Returns false when unknown.
func DimensionFromConfig(cfg map[string]any) (int, bool) {
	for _, key := range dimensionKeys {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			if n > 0 {
				return n, true
			}
		case int64:
			if n > 0 {
				return int(n), true
			}
		case float64:
			if n > 0 && n == math.Trunc(n) {
				return int(n), true
			}
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && parsed > 0 {
				return parsed, true
			}
		}
	}
	return 0, false
}

// Validate checks a parsed vector against a known provider dimension.
// A zero expected dimension means the provider size is unknown and any
// length passes.
func Validate(vec []float32, expected int) error {
	if expected > 0 && len(vec) != expected {
		return domain.NewValidation("vector",
			"vector has %d components, provider expects %d", len(vec), expected)
	}
	return nil
}
