package domain

import "errors"

// Sentinel errors used across layers.
var (
	// ErrNoDocument means an operation needs a loaded guide and none exists.
	ErrNoDocument = errors.New("no document loaded")

	// ErrExtraction marks a failed load attempt. The document is left
	// empty; no retry is attempted.
	ErrExtraction = errors.New("extraction failed")

	// ErrTransformation marks a failed or malformed transformation
	// response. The document is left exactly as it was.
	ErrTransformation = errors.New("transformation failed")

	// ErrEcoAlreadyApplied guards against duplicate eco-swaps on a
	// document that has already been sustainably adjusted.
	ErrEcoAlreadyApplied = errors.New("eco swap already applied")

	// ErrNothingToSay is delivered on the completion channel when Speak
	// is given empty or whitespace-only text.
	ErrNothingToSay = errors.New("nothing to say")

	// ErrBusy means an operation of the same class is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// Speech input errors. Transient kinds are swallowed by the listener;
// fatal kinds force listening off.
var (
	// ErrNoSpeech: the recognizer heard nothing usable. Transient.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrRecognitionAborted: a recognition cycle was cut short. Transient.
	ErrRecognitionAborted = errors.New("recognition aborted")

	// ErrSpeechPermission: microphone access denied. Fatal — listening
	// is forced off and must be explicitly re-enabled.
	ErrSpeechPermission = errors.New("microphone permission denied")
)

// TransientSpeechError reports whether a recognizer error should be
// swallowed without stopping the listening loop.
func TransientSpeechError(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrRecognitionAborted)
}
