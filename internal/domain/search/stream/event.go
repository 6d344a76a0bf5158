// Package stream defines the event union emitted by a generative
// answer source. Events arrive in order per stream, but the relative
// order of metadata and token events is not guaranteed.
package stream

import "github.com/kailas-cloud/searchpad/internal/domain/search/result"

// EventType discriminates the event union.
type EventType string

// Event types.
const (
	// EventToken carries an incremental answer fragment.
	EventToken EventType = "token"
	// EventMetadata carries retrieval context and provider info.
	EventMetadata EventType = "metadata"
	// EventCompletion finalizes the answer.
	EventCompletion EventType = "completion"
	// EventError aborts the stream with a message.
	EventError EventType = "error"
)

// Usage holds token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Merge overlays non-zero fields of other on top of u.
func (u Usage) Merge(other Usage) Usage {
	if other.PromptTokens > 0 {
		u.PromptTokens = other.PromptTokens
	}
	if other.CompletionTokens > 0 {
		u.CompletionTokens = other.CompletionTokens
	}
	if other.TotalTokens > 0 {
		u.TotalTokens = other.TotalTokens
	}
	return u
}

// Metadata carries the retrieval context attached to an answer. It may
// arrive before, between, or after token events.
type Metadata struct {
	Context     []result.Result
	Provider    string
	Model       string
	QueryVector []float32
	Usage       *Usage
}

// Completion finalizes the stream. An explicit Answer is authoritative
// and replaces the accumulated token buffer.
type Completion struct {
	Answer *string
	Usage  *Usage
}

// Event is one element of the generative answer stream. Generation
// ties the event to the search that opened the stream; events from a
// superseded generation are dropped without reaching state.
type Event struct {
	Generation uint64
	Type       EventType

	// Delta is set for EventToken.
	Delta string
	// Metadata is set for EventMetadata.
	Metadata *Metadata
	// Completion is set for EventCompletion.
	Completion *Completion
	// Message is set for EventError.
	Message string
}
