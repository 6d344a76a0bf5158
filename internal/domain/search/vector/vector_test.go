package vector

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchpad/internal/domain"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float32
	}{
		{"commas", "1,2,3", []float32{1, 2, 3}},
		{"spaces", "1 2 3", []float32{1, 2, 3}},
		{"mixed separators", "1, 2 3", []float32{1, 2, 3}},
		{"negative and fraction", "-0.5, 2.25", []float32{-0.5, 2.25}},
		{"surrounding whitespace", "  1 ,\t2\n", []float32{1, 2}},
		{"scientific notation", "1e-3 2", []float32{0.001, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("component %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParse_InvalidToken(t *testing.T) {
	_, err := Parse("1,a,3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), `"a"`) {
		t.Errorf("error should name the invalid token, got %q", err)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", ",,,"} {
		if _, err := Parse(raw); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Parse(%q): expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestParse_NonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "1,-Inf"} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q): expected error", raw)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := Preview(nil); got != EmptyPreview {
		t.Errorf("Preview(nil) = %q", got)
	}
	if got := Preview([]float32{1, 2.5}); got != "1.000, 2.500" {
		t.Errorf("short preview = %q", got)
	}
	got := Preview([]float32{1, 2, 3, 4, 5, 6, 7, 8})
	if got != "1.000, 2.000, 3.000, 4.000, 5.000, 6.000, …" {
		t.Errorf("long preview = %q", got)
	}
}

func TestDimensionFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    map[string]any
		want   int
		wantOK bool
	}{
		{"int", map[string]any{"dimensions": 768}, 768, true},
		{"float from json", map[string]any{"dim": float64(1536)}, 1536, true},
		{"numeric string", map[string]any{"size": " 384 "}, 384, true},
		{"non-numeric string", map[string]any{"dimensions": "large"}, 0, false},
		{"fractional", map[string]any{"dimensions": 1.5}, 0, false},
		{"zero", map[string]any{"dimensions": 0}, 0, false},
		{"missing", map[string]any{"model": "x"}, 0, false},
		{"nil config", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DimensionFromConfig(tt.cfg)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("DimensionFromConfig = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidate_DimensionMismatch(t *testing.T) {
	if err := Validate([]float32{1, 2, 3}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate([]float32{1, 2, 3}, 0); err != nil {
		t.Fatalf("unknown dimension should pass: %v", err)
	}
	err := Validate([]float32{1, 2}, 3)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "expects 3") {
		t.Errorf("error = %q", err)
	}
}
