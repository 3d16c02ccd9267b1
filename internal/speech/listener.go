package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Listener is the speech input controller. It wraps a Recognizer with a
// continuous-listening loop: sessions that end unexpectedly are restarted
// while listening stays enabled, transient recognition errors are
// swallowed, fatal ones (microphone permission) force listening off.
//
// Only finalized utterances reach Utterances(); interim transcripts are
// discarded here and never forwarded to the router.
type Listener struct {
	rec Recognizer
	log *zap.Logger

	mu      sync.Mutex
	enabled bool
	cancel  context.CancelFunc // stops the current session loop

	wake       chan struct{}
	utterances chan string
	notices    chan string
}

// NewListener creates a speech input controller. Call Start to launch the
// supervising goroutine, then toggle with SetListening.
func NewListener(rec Recognizer, log *zap.Logger) *Listener {
	return &Listener{
		rec:        rec,
		log:        log,
		wake:       make(chan struct{}, 1),
		utterances: make(chan string, 8),
		notices:    make(chan string, 4),
	}
}

// Utterances returns the channel of finalized recognized utterances.
func (l *Listener) Utterances() <-chan string { return l.utterances }

// Notices returns user-facing notices, e.g. when a fatal error forces
// listening off.
func (l *Listener) Notices() <-chan string { return l.notices }

// Start launches the supervising goroutine. Non-blocking; the goroutine
// exits when ctx is canceled.
func (l *Listener) Start(ctx context.Context) {
	go l.supervise(ctx)
	l.log.Info("listener started")
}

// SetListening enables or disables continuous listening. Disabling stops
// the in-flight recognition session.
func (l *Listener) SetListening(on bool) {
	l.mu.Lock()
	if l.enabled == on {
		l.mu.Unlock()
		return
	}
	l.enabled = on
	if !on && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	if on {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	l.log.Info("listening toggled", zap.Bool("on", on))
}

// Listening reports whether continuous listening is enabled. After a
// fatal recognition error this reads false even though the user never
// toggled it, so the UI reflects the forced stop.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// supervise waits for listening to be enabled and runs the session loop.
func (l *Listener) supervise(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.log.Info("listener stopped")
			return
		case <-l.wake:
			l.listenLoop(ctx)
		}
	}
}

// listenLoop runs recognition sessions back to back until listening is
// disabled, forced off, or ctx ends. A session that ends while listening
// is still enabled is simply restarted.
func (l *Listener) listenLoop(ctx context.Context) {
	for l.Listening() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sessionCtx := l.newSession(ctx)
		if sessionCtx == nil {
			return // disabled between checks
		}

		events, err := l.rec.Start(sessionCtx)
		if err != nil {
			if errors.Is(err, ErrRecognizerActive) {
				// Benign race: the previous session hasn't fully torn
				// down yet. Retry shortly.
				l.log.Debug("recognizer still active, retrying")
				sleepCtx(ctx, 100*time.Millisecond)
				continue
			}
			if domain.TransientSpeechError(err) {
				l.log.Debug("transient start failure", zap.Error(err))
				sleepCtx(ctx, 250*time.Millisecond)
				continue
			}
			l.forceOff(err)
			return
		}

		if fatal := l.consume(sessionCtx, events); fatal != nil {
			l.forceOff(fatal)
			return
		}
	}
}

// newSession installs a cancelable sub-context for one recognition
// session, or returns nil if listening was disabled meanwhile.
func (l *Listener) newSession(ctx context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return nil
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return sessionCtx
}

// consume drains one session's events. Returns the fatal error that
// should force listening off, or nil when the session ended benignly.
func (l *Listener) consume(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil // session ended; caller decides on restart
			}
			if ev.Err != nil {
				if domain.TransientSpeechError(ev.Err) {
					l.log.Debug("transient recognition error", zap.Error(ev.Err))
					continue
				}
				return ev.Err
			}
			if !ev.Final {
				continue
			}
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue
			}
			l.log.Debug("utterance recognized", zap.String("text", truncate(text, 60)))
			select {
			case l.utterances <- text:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// forceOff turns listening off after a fatal error and surfaces a notice.
func (l *Listener) forceOff(err error) {
	l.mu.Lock()
	l.enabled = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.log.Error("listening forced off", zap.Error(err))

	notice := "Voice input stopped: " + err.Error()
	if errors.Is(err, domain.ErrSpeechPermission) {
		notice = "Voice input stopped: microphone access was denied."
	}
	select {
	case l.notices <- notice:
	default:
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
