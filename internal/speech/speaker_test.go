package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSynth records synthesized texts and returns canned audio.
type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []byte("RIFFfakeWAVE"), nil
}

func (f *fakeSynth) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// instantSink plays everything immediately and counts the plays that
// actually make sound. Per the AudioSink contract, a canceled context
// produces none.
type instantSink struct {
	mu     sync.Mutex
	played int
}

func (s *instantSink) Play(ctx context.Context, wav []byte) error {
	if ctx.Err() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played++
	return nil
}

func (s *instantSink) plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// blockingSink plays until the utterance's context is canceled, and
// counts the cancellations it observed.
type blockingSink struct {
	playing  chan struct{}
	canceled atomic.Int32
}

func newBlockingSink() *blockingSink {
	return &blockingSink{playing: make(chan struct{}, 4)}
}

func (s *blockingSink) Play(ctx context.Context, wav []byte) error {
	if ctx.Err() != nil {
		s.canceled.Add(1)
		return nil
	}
	select {
	case s.playing <- struct{}{}:
	default:
	}
	<-ctx.Done()
	s.canceled.Add(1)
	return nil
}

func waitCanceled(t *testing.T, s *blockingSink) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.canceled.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sink never observed cancellation")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("completion never fired")
		return nil
	}
}

func TestSpeakCompletes(t *testing.T) {
	synth := &fakeSynth{}
	sink := &instantSink{}
	s := NewSpeaker(synth, sink, zap.NewNop())

	done := s.Speak(context.Background(), "Step one. Mix the flour.")
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, 1, sink.plays())

	// Exactly one value, ever.
	select {
	case err := <-done:
		t.Fatalf("completion fired twice: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSpeakEmptyText(t *testing.T) {
	s := NewSpeaker(&fakeSynth{}, &instantSink{}, zap.NewNop())

	for _, text := range []string{"", "   ", "****", "``"} {
		err := waitDone(t, s.Speak(context.Background(), text))
		assert.ErrorIsf(t, err, domain.ErrNothingToSay, "text %q", text)
	}
}

func TestSpeakStripsMarkup(t *testing.T) {
	synth := &fakeSynth{}
	s := NewSpeaker(synth, &instantSink{}, zap.NewNop())

	done := s.Speak(context.Background(), "**Whisk** the _eggs_ until `fluffy`.")
	require.NoError(t, waitDone(t, done))

	calls := synth.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Whisk the eggs until fluffy.", calls[0])
}

func TestSpeakMuted(t *testing.T) {
	synth := &fakeSynth{}
	sink := &instantSink{}
	s := NewSpeaker(synth, sink, zap.NewNop(), WithMuted(true))

	done := s.Speak(context.Background(), "You should not hear this.")
	require.NoError(t, waitDone(t, done))
	assert.Empty(t, synth.calls(), "muted speaker must not synthesize")
	assert.Equal(t, 0, sink.plays())
}

func TestCancelFiresCompletionImmediately(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&fakeSynth{}, sink, zap.NewNop())

	done := s.Speak(context.Background(), "A very long narration.")
	<-sink.playing

	s.Cancel()
	require.NoError(t, waitDone(t, done), "cancellation completes with nil")
	assert.False(t, s.Speaking())

	// Idempotent.
	s.Cancel()

	time.Sleep(50 * time.Millisecond) // let the narration goroutine drain
}

func TestNewSpeakSupersedes(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&fakeSynth{}, sink, zap.NewNop())

	first := s.Speak(context.Background(), "First narration.")
	<-sink.playing

	second := s.Speak(context.Background(), "Second narration.")

	// The superseded utterance completes right away.
	require.NoError(t, waitDone(t, first))

	<-sink.playing
	s.Cancel()
	require.NoError(t, waitDone(t, second))

	time.Sleep(50 * time.Millisecond)
}

func TestSetMutedCancelsInFlight(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&fakeSynth{}, sink, zap.NewNop())

	done := s.Speak(context.Background(), "Narrating away.")
	<-sink.playing

	s.SetMuted(true)
	require.NoError(t, waitDone(t, done))
	assert.True(t, s.Muted())
	assert.False(t, s.Speaking())

	time.Sleep(50 * time.Millisecond)
}

func TestCancelStopsPlaybackThroughContext(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&fakeSynth{}, sink, zap.NewNop())

	done := s.Speak(context.Background(), "Narrating at length.")
	<-sink.playing

	s.Cancel()
	require.NoError(t, waitDone(t, done))

	// The sink's Play must see the cancellation and return; a playback
	// goroutine left behind would trip goleak in TestMain.
	waitCanceled(t, sink)
}

func TestCanceledUtteranceStaysSilent(t *testing.T) {
	// A cancellation can land after the narration goroutine decided to
	// play but before the sink started. The sink sees it through the
	// utterance's context and must not make a sound.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{}
	sink := &instantSink{}
	s := NewSpeaker(synth, sink, zap.NewNop())

	done := s.Speak(ctx, "You should never hear this.")
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, 0, sink.plays(), "canceled utterance reached the speakers")
}

func TestSynthesisErrorPropagates(t *testing.T) {
	boom := errors.New("tts unavailable")
	s := NewSpeaker(&fakeSynth{err: boom}, &instantSink{}, zap.NewNop())

	err := waitDone(t, s.Speak(context.Background(), "Hello."))
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Speaking())
}

func TestRepeatedTextHitsCache(t *testing.T) {
	synth := &fakeSynth{}
	s := NewSpeaker(synth, &instantSink{}, zap.NewNop())

	require.NoError(t, waitDone(t, s.Speak(context.Background(), "Same line.")))
	require.NoError(t, waitDone(t, s.Speak(context.Background(), "Same line.")))

	assert.Len(t, synth.calls(), 1, "second narration should come from cache")
}
