package speech

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// AudioSink plays synthesized audio. Play blocks until playback finishes
// or ctx is canceled. Cancellation is not an error, and a Play handed an
// already-canceled ctx must return without producing any sound.
type AudioSink interface {
	Play(ctx context.Context, wav []byte) error
}

// speakerState is the Speaker's narration mode.
type speakerState int

const (
	stateIdle speakerState = iota
	stateSpeaking
)

// utterance is one in-flight narration with its completion channel. The
// channel carries exactly one value: nil on natural end or cancellation,
// the playback error otherwise. stop cancels the utterance's context,
// which the sink observes both before and during playback — so a
// cancellation landing between the staleness check and Play still keeps
// the superseded narration silent.
type utterance struct {
	text string
	done chan error
	stop context.CancelFunc
	once sync.Once
}

func (u *utterance) complete(err error) {
	u.once.Do(func() { u.done <- err })
}

// Speaker is the speech output controller. At most one utterance is
// active at a time; a new Speak always wins over an unfinished one.
//
// Cancellation fires the pending completion immediately (with nil), so a
// caller sequencing logic off the completion channel can never hang on a
// canceled narration.
type Speaker struct {
	synth domain.Synthesizer
	sink  AudioSink
	cache *AudioCache
	log   *zap.Logger

	mu      sync.Mutex
	state   speakerState
	muted   bool
	current *utterance
}

// SpeakerOption configures the Speaker.
type SpeakerOption func(*Speaker)

// WithMuted sets the initial mute state.
func WithMuted(muted bool) SpeakerOption {
	return func(s *Speaker) { s.muted = muted }
}

// NewSpeaker creates a speech output controller.
func NewSpeaker(synth domain.Synthesizer, sink AudioSink, log *zap.Logger, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		synth: synth,
		sink:  sink,
		cache: NewAudioCache(log),
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak strips presentation markup from text and narrates it, canceling any
// in-flight utterance first. The returned channel is buffered and receives
// exactly one value: nil on natural end or cancellation, the error on
// synthesis/playback failure, ErrNothingToSay for empty text. The value is
// never delivered synchronously into the caller's stack.
func (s *Speaker) Speak(ctx context.Context, text string) <-chan error {
	done := make(chan error, 1)
	plain := Plaintext(text)

	s.mu.Lock()
	s.cancelLocked()

	if strings.TrimSpace(plain) == "" {
		s.mu.Unlock()
		// A zero-length narration must not silently "complete" as if
		// something was read. Callers substitute a fallback phrase.
		done <- domain.ErrNothingToSay
		return done
	}

	if s.muted {
		s.mu.Unlock()
		// Mute must not break completion-dependent sequencing.
		done <- nil
		return done
	}

	uctx, ucancel := context.WithCancel(ctx)
	u := &utterance{text: plain, done: done, stop: ucancel}
	s.current = u
	s.state = stateSpeaking
	s.mu.Unlock()

	go s.narrate(uctx, u)
	return done
}

// narrate synthesizes and plays one utterance, then fires its completion.
func (s *Speaker) narrate(ctx context.Context, u *utterance) {
	wav, err := s.synthesizeWithCache(ctx, u.text)
	if err != nil {
		s.log.Error("synthesis failed", zap.Error(err))
		s.finish(u, err)
		return
	}

	// Canceled while synthesizing: the completion already fired.
	s.mu.Lock()
	stale := s.current != u
	s.mu.Unlock()
	if stale {
		return
	}

	// ctx is the utterance's own context; a cancellation racing past the
	// staleness check still silences the sink.
	if err := s.sink.Play(ctx, wav); err != nil {
		s.log.Error("playback failed", zap.Error(err))
		s.finish(u, err)
		return
	}
	s.finish(u, nil)
}

// finish transitions back to idle if u is still current, releases the
// utterance's context, and fires the completion exactly once.
func (s *Speaker) finish(u *utterance, err error) {
	s.mu.Lock()
	if s.current == u {
		s.current = nil
		s.state = stateIdle
	}
	s.mu.Unlock()
	u.stop()
	u.complete(err)
}

// synthesizeWithCache checks the cache first, otherwise synthesizes and
// stores the result.
func (s *Speaker) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if wav, ok := s.cache.Get(text); ok {
		return wav, nil
	}
	wav, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Put(text, wav)
	return wav, nil
}

// Cancel stops any in-flight narration and returns to idle. Synchronous
// and idempotent: the pending completion fires immediately (once) rather
// than being left dangling.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

// cancelLocked implements Cancel. Must be called with s.mu held.
func (s *Speaker) cancelLocked() {
	if s.current == nil {
		return
	}
	u := s.current
	s.current = nil
	s.state = stateIdle
	u.stop()
	u.complete(nil)
	s.log.Debug("narration canceled", zap.String("text", truncate(u.text, 60)))
}

// SetMuted switches narration off or on. Muting cancels any in-flight
// utterance.
func (s *Speaker) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	if muted {
		s.cancelLocked()
	}
	s.mu.Unlock()
}

// Muted reports the current mute state.
func (s *Speaker) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Speaking reports whether an utterance is currently active.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateSpeaking
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
