package speech

import (
	"context"
	"errors"
)

// ErrRecognizerActive is returned by Start while a session is already
// running. The listener's restart loop treats it as a benign race.
var ErrRecognizerActive = errors.New("recognition session already active")

// Event is one occurrence in a recognition session: a transcript (interim
// or finalized) or a terminal error.
type Event struct {
	Text  string
	Final bool  // true when Text is a finalized utterance
	Err   error // terminal for this session when non-nil
}

// Recognizer runs recognition sessions. Start returns a channel of events
// that closes when the session ends, for whatever reason; the listener
// restarts sessions while listening stays enabled.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Event, error)
}
