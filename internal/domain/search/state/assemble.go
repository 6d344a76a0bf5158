package state

import "github.com/kailas-cloud/searchpad/internal/domain/search/stream"

// Assembler folds the events of one answer stream into search state.
// It is bound to a single generation; events tagged with any other
// generation are discarded silently.
type Assembler struct {
	generation uint64
}

// NewAssembler creates an assembler for the given search generation.
func NewAssembler(generation uint64) *Assembler {
	return &Assembler{generation: generation}
}

// Apply folds one event into the state and returns the updated state.
// Stale-generation events return the state unchanged.
func (a *Assembler) Apply(st State, ev stream.Event) State {
	if ev.Generation != a.generation {
		return st
	}
	return reduce(st, ev)
}

// reduce is the pure event reducer. Token events are the only mutation
// that grows the visible answer; metadata events populate metadata
// fields in any arrival order and never touch the answer buffer;
// completion and error events finalize the phase, error preserving
// whatever answer has accumulated.
func reduce(st State, ev stream.Event) State {
	switch ev.Type {
	case stream.EventToken:
		st.Answer += ev.Delta

	case stream.EventMetadata:
		if ev.Metadata == nil {
			break
		}
		st.Context = ev.Metadata.Context
		st.Provider = ev.Metadata.Provider
		st.Model = ev.Metadata.Model
		st.QueryVector = ev.Metadata.QueryVector
		if ev.Metadata.Usage != nil {
			st.Usage = st.Usage.Merge(*ev.Metadata.Usage)
		}

	case stream.EventCompletion:
		st.Phase = Completed
		if ev.Completion != nil {
			if ev.Completion.Answer != nil {
				st.Answer = *ev.Completion.Answer
			}
			if ev.Completion.Usage != nil {
				st.Usage = st.Usage.Merge(*ev.Completion.Usage)
			}
		}

	case stream.EventError:
		st.Phase = Errored
		st.Message = ev.Message
	}
	return st
}
