package speech

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Compile-time interface check.
var _ Recognizer = (*WhisperRecognizer)(nil)

// envAnnotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)", etc.
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s]*[\)\]]`)

// WhisperOption configures the WhisperRecognizer.
type WhisperOption func(*WhisperRecognizer)

// WithRecordDuration sets how long each recording chunk lasts.
func WithRecordDuration(d time.Duration) WhisperOption {
	return func(w *WhisperRecognizer) { w.recordDuration = d }
}

// WithSilenceChunks sets how many consecutive empty chunks end an utterance.
func WithSilenceChunks(n int) WhisperOption {
	return func(w *WhisperRecognizer) { w.silenceChunks = n }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) WhisperOption {
	return func(w *WhisperRecognizer) { w.tempDir = dir }
}

// WhisperRecognizer provides speech-to-text using a local Whisper model.
// It records short chunks from the microphone, transcribes each one, and
// accumulates consecutive non-empty chunks into a single final utterance,
// ended by a run of silence.
type WhisperRecognizer struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *zap.Logger

	recordDuration time.Duration
	silenceChunks  int

	mu     sync.Mutex
	active bool
}

// NewWhisperRecognizer creates a local speech recognizer.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewWhisperRecognizer(whisperBin, modelPath string, log *zap.Logger, opts ...WhisperOption) (*WhisperRecognizer, error) {
	w := &WhisperRecognizer{
		whisperBin:     whisperBin,
		modelPath:      modelPath,
		tempDir:        ".assistchan-stt",
		log:            log,
		recordDuration: 2 * time.Second,
		silenceChunks:  2,
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := exec.LookPath(w.whisperBin); err != nil {
		return nil, fmt.Errorf("whisper binary %q not found: %w", w.whisperBin, err)
	}

	return w, nil
}

// Start begins a recognition session. Only one session may be active at
// a time. The returned channel is closed when the session ends.
func (w *WhisperRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		return nil, ErrRecognizerActive
	}
	w.active = true
	w.mu.Unlock()

	events := make(chan Event, 4)
	go w.run(ctx, events)
	return events, nil
}

func (w *WhisperRecognizer) run(ctx context.Context, events chan<- Event) {
	defer func() {
		close(events)
		w.mu.Lock()
		w.active = false
		w.mu.Unlock()
	}()

	var parts []string
	emptyRuns := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, err := w.recordChunk(ctx)
		if err != nil {
			w.emit(ctx, events, Event{Err: err})
			if !domain.TransientSpeechError(err) {
				return
			}
			continue
		}

		chunk = cleanTranscription(chunk)
		if chunk == "" {
			emptyRuns++
			if len(parts) > 0 && emptyRuns >= w.silenceChunks {
				text := strings.TrimSpace(strings.Join(parts, " "))
				w.log.Debug("whisper: utterance complete", zap.String("text", text))
				w.emit(ctx, events, Event{Text: text, Final: true})
				parts = parts[:0]
				emptyRuns = 0
			}
			continue
		}

		emptyRuns = 0
		w.log.Debug("whisper: chunk", zap.String("text", chunk))
		w.emit(ctx, events, Event{Text: strings.Join(append(parts[:len(parts):len(parts)], chunk), " ")})
		parts = append(parts, chunk)
	}
}

func (w *WhisperRecognizer) emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// recordChunk does one recording cycle and returns the transcribed text.
func (w *WhisperRecognizer) recordChunk(ctx context.Context) (string, error) {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := w.log.Core().Enabled(zapcore.DebugLevel)
	t, err := audiotranscriber.NewTranscriber(
		w.whisperBin,
		w.modelPath,
		w.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		return "", fmt.Errorf("%w: transcriber init: %v", domain.ErrSpeechPermission, err)
	}

	if err := t.Start(); err != nil {
		return "", fmt.Errorf("%w: recording start: %v", domain.ErrRecognitionAborted, err)
	}

	select {
	case <-time.After(w.recordDuration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return "", nil
	}

	t.Stop()
	wg.Wait()

	return result, nil
}

// cleanTranscription strips whitespace and removes common whisper
// artifacts like "[BLANK_AUDIO]", "(silence)", hallucinated filler
// phrases, and timestamp prefixes.
func cleanTranscription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	junkPatterns := []string{
		"[BLANK_AUDIO]",
		"[BLANK AUDIO]",
		"(silence)",
		"[silence]",
		"(no speech)",
		"[no speech]",
		"[Music]",
		"(music)",
		"(typing)",
		"(clicking)",
		"(breathing)",
		"(inaudible)",
		"(unintelligible)",
		"(static)",
		"(background noise)",
	}
	for _, j := range junkPatterns {
		s = strings.ReplaceAll(s, j, "")
		s = strings.ReplaceAll(s, strings.ToLower(j), "")
		s = strings.ReplaceAll(s, strings.ToUpper(j), "")
	}

	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	// If what remains is just a known hallucination, discard entirely.
	hallucinations := []string{
		"...",
		"you",
		"Thank you.",
		"Thanks for watching!",
		"Thank you for watching.",
		"Bye.",
		"Bye!",
		"The end.",
	}
	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if strings.ToLower(h) == lower {
			return ""
		}
	}

	// Strip whisper timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]".
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			s = strings.TrimSpace(s[idx+1:])
		}
	}

	return s
}
