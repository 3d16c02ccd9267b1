package speech

import (
	"context"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Synthesizer = (*NoOpSynthesizer)(nil)
	_ AudioSink          = (*NoOpSink)(nil)
)

// NoOpSynthesizer produces no audio. Used when voice output is disabled.
type NoOpSynthesizer struct {
	log *zap.Logger
}

// NewNoOpSynthesizer creates a no-op synthesizer.
func NewNoOpSynthesizer(log *zap.Logger) *NoOpSynthesizer {
	return &NoOpSynthesizer{log: log}
}

// Synthesize returns empty audio.
func (n *NoOpSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	n.log.Debug("tts no-op: would say", zap.String("text", text))
	return nil, nil
}

// NoOpSink discards audio. Used when no audio device is available.
type NoOpSink struct{}

// Play does nothing.
func (NoOpSink) Play(ctx context.Context, wav []byte) error { return nil }
