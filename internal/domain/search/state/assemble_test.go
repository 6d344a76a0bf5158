package state

import (
	"testing"

	"github.com/kailas-cloud/searchpad/internal/domain/search/mode"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
)

func strPtr(s string) *string { return &s }

func streamingState(generation uint64) State {
	st := New(generation, mode.Generative)
	st.Phase = Streaming
	return st
}

func TestAssembler_TokensThenCompletion(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)

	ctx := []result.Result{result.New("p1", map[string]any{"k": "v"}, nil, nil)}
	events := []stream.Event{
		{Generation: 1, Type: stream.EventMetadata, Metadata: &stream.Metadata{
			Context:     ctx,
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			QueryVector: []float32{0.1, 0.2},
		}},
		{Generation: 1, Type: stream.EventToken, Delta: "Hel"},
		{Generation: 1, Type: stream.EventToken, Delta: "lo"},
		{Generation: 1, Type: stream.EventCompletion, Completion: &stream.Completion{}},
	}
	for _, ev := range events {
		st = a.Apply(st, ev)
	}

	if st.Answer != "Hello" {
		t.Errorf("Answer = %q, want %q", st.Answer, "Hello")
	}
	if st.Phase != Completed {
		t.Errorf("Phase = %q, want completed", st.Phase)
	}
	if len(st.Context) != 1 || st.Provider != "openai" || st.Model != "gpt-4o-mini" {
		t.Errorf("metadata not attached: %+v", st)
	}
	if len(st.QueryVector) != 2 {
		t.Errorf("QueryVector = %v", st.QueryVector)
	}
}

func TestAssembler_MetadataAfterTokensKeepsAnswer(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)

	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventToken, Delta: "partial"})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventMetadata, Metadata: &stream.Metadata{
		Provider: "openai",
	}})

	if st.Answer != "partial" {
		t.Errorf("metadata must not clear the token buffer, Answer = %q", st.Answer)
	}
	if st.Provider != "openai" {
		t.Errorf("Provider = %q", st.Provider)
	}
}

func TestAssembler_ErrorPreservesPartialAnswer(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)

	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventToken, Delta: "Hel"})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventError, Message: "timeout"})

	if st.Phase != Errored {
		t.Errorf("Phase = %q, want errored", st.Phase)
	}
	if st.Answer != "Hel" {
		t.Errorf("partial answer lost: %q", st.Answer)
	}
	if st.Message != "timeout" {
		t.Errorf("Message = %q", st.Message)
	}
}

func TestAssembler_ExplicitAnswerIsAuthoritative(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)

	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventToken, Delta: "draft"})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventCompletion, Completion: &stream.Completion{
		Answer: strPtr("final answer"),
		Usage:  &stream.Usage{CompletionTokens: 12, TotalTokens: 40},
	}})

	if st.Answer != "final answer" {
		t.Errorf("Answer = %q", st.Answer)
	}
	if st.Usage.CompletionTokens != 12 || st.Usage.TotalTokens != 40 {
		t.Errorf("Usage = %+v", st.Usage)
	}
}

func TestAssembler_UsageMerge(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)

	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventMetadata, Metadata: &stream.Metadata{
		Usage: &stream.Usage{PromptTokens: 100, TotalTokens: 100},
	}})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventCompletion, Completion: &stream.Completion{
		Usage: &stream.Usage{CompletionTokens: 20, TotalTokens: 120},
	}})

	if st.Usage.PromptTokens != 100 {
		t.Errorf("PromptTokens = %d, metadata value should survive", st.Usage.PromptTokens)
	}
	if st.Usage.CompletionTokens != 20 || st.Usage.TotalTokens != 120 {
		t.Errorf("Usage = %+v", st.Usage)
	}
}

func TestAssembler_StaleGenerationDiscarded(t *testing.T) {
	a := NewAssembler(2)
	st := streamingState(2)

	st = a.Apply(st, stream.Event{Generation: 2, Type: stream.EventToken, Delta: "new"})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventToken, Delta: "OLD"})
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventError, Message: "old stream died"})

	if st.Answer != "new" {
		t.Errorf("stale token mutated state: %q", st.Answer)
	}
	if st.Phase != Streaming {
		t.Errorf("stale error changed phase: %q", st.Phase)
	}
}

func TestAssembler_NilMetadataIgnored(t *testing.T) {
	a := NewAssembler(1)
	st := streamingState(1)
	st = a.Apply(st, stream.Event{Generation: 1, Type: stream.EventMetadata})
	if st.Phase != Streaming || st.Answer != "" {
		t.Errorf("unexpected state: %+v", st)
	}
}
