package domain

import "context"

// Extractor turns a user-supplied locator (a URL-like string) into an
// initial guide. Implementations may attach Sources. Failures wrap
// ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, locator string) (*Guide, error)
}

// Generator is the opaque generation capability: given a document and an
// instruction, produce a new document or a text answer. Implementations
// can be LLM-backed or canned for tests.
type Generator interface {
	// Transform returns a complete replacement guide, never a patch.
	Transform(ctx context.Context, guide *Guide, instruction string) (*Guide, error)

	// Answer produces prose against the document and the full ordered
	// chat history. Completed holds the indices of steps the user has
	// already finished so "what's next" answers can skip them.
	Answer(ctx context.Context, guide *Guide, history []ChatMessage, utterance string, completed []int) (string, error)

	// Classify returns a short human-readable summary of the intended
	// change when the utterance is a transformation request, or ""
	// when it is a question.
	Classify(ctx context.Context, utterance string) (string, error)

	// Suggest returns a sustainable-alternative hint for the guide, or
	// "" when none is available. Best-effort: never treated as fatal.
	Suggest(ctx context.Context, title string, materials []string) (string, error)
}

// Synthesizer converts text to playable audio. Implementations can be
// cloud TTS or canned for tests.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
