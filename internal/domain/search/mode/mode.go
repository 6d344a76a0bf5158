package mode

// Mode is the search strategy. Modes are mutually exclusive: switching
// mode replaces the active search state wholesale.
type Mode string

// Search mode constants.
const (
	// Semantic embeds free text and runs nearest-neighbour search.
	Semantic Mode = "semantic"
	// Filter scans by structured filter conditions only, no vector.
	Filter Mode = "filter"
	// Vector searches by a user-supplied raw numeric vector.
	Vector Mode = "vector"
	// Generative retrieves context and streams an LLM answer.
	Generative Mode = "generative"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Filter || m == Vector || m == Generative
}
