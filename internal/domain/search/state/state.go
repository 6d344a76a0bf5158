// Package state holds the single active search state and the reducer
// that folds stream events into it.
package state

import (
	"github.com/kailas-cloud/searchpad/internal/domain/search/mode"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
)

// Phase is the lifecycle phase of the active search.
type Phase string

// Search phases. Streaming occurs only in generative mode.
const (
	Idle      Phase = "idle"
	Searching Phase = "searching"
	Streaming Phase = "streaming"
	Completed Phase = "completed"
	Errored   Phase = "errored"
)

// State is the active search state. Exactly one exists per session; a
// new submission replaces it wholesale, load-more and stream events
// extend it in place.
type State struct {
	Generation uint64
	Mode       mode.Mode
	Phase      Phase

	Results []result.Result
	Scores  map[string]float64
	// NextOffset is the pagination cursor; nil means no further page.
	NextOffset *uint64

	Provider    string
	Model       string
	Usage       stream.Usage
	Context     []result.Result
	QueryVector []float32

	Answer  string
	Message string
}

// New creates a fresh state for a search generation.
func New(generation uint64, m mode.Mode) State {
	return State{Generation: generation, Mode: m, Phase: Searching}
}
