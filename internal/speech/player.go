package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ AudioSink = (*Player)(nil)

// Player plays WAV audio through the system audio device.
type Player struct {
	otoCtx *oto.Context
	log    *zap.Logger
}

// NewPlayer initializes the audio output device. The underlying context
// can only be created once per process.
func NewPlayer(log *zap.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-readyChan

	return &Player{otoCtx: otoCtx, log: log}, nil
}

// Play blocks until the given WAV audio finishes or ctx is canceled. A
// cancellation, before or during playback, is not an error.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	if ctx.Err() != nil {
		return nil
	}

	pcm, err := extractPCM(wav)
	if err != nil {
		return fmt.Errorf("extracting pcm: %w", err)
	}

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return player.Close()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return player.Close()
}

// extractPCM parses a RIFF WAV container and returns the raw PCM samples
// from its data chunk.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		if chunkID == "data" {
			end := offset + 8 + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[offset+8 : end], nil
		}
		offset += 8 + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	return nil, fmt.Errorf("no data chunk found")
}
