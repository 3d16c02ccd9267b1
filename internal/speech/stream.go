package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Compile-time interface check.
var _ Recognizer = (*StreamRecognizer)(nil)

// streamMessage is the wire format of a recognition service event.
type streamMessage struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error,omitempty"`
}

// StreamRecognizer receives speech recognition results from an external
// service over a websocket. Each session dials a fresh connection; the
// service streams interim and final transcriptions as JSON messages.
type StreamRecognizer struct {
	wsURL string
	log   *zap.Logger

	mu     sync.Mutex
	active bool
}

// NewStreamRecognizer creates a recognizer backed by a streaming
// recognition service at the given websocket URL.
func NewStreamRecognizer(wsURL string, log *zap.Logger) (*StreamRecognizer, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid recognizer url: %w", err)
	}
	return &StreamRecognizer{wsURL: wsURL, log: log}, nil
}

// Start dials the recognition service and begins a session. Only one
// session may be active at a time. The returned channel is closed when
// the connection ends.
func (s *StreamRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, ErrRecognizerActive
	}
	s.active = true
	s.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		return nil, fmt.Errorf("dialing recognizer: %w", err)
	}
	s.log.Debug("recognizer connected", zap.String("url", s.wsURL))

	events := make(chan Event, 4)
	go s.read(ctx, conn, events)
	return events, nil
}

func (s *StreamRecognizer) read(ctx context.Context, conn *websocket.Conn, events chan<- Event) {
	defer func() {
		conn.Close()
		close(events)
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	// Unblock ReadMessage when the session context is canceled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug("recognizer connection closed", zap.Error(err))
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("recognizer sent malformed message", zap.Error(err))
			continue
		}

		ev := Event{Text: msg.Text, Final: msg.Final}
		if msg.Error != "" {
			ev.Err = mapStreamError(msg.Error)
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// mapStreamError translates service error codes into recognition errors.
func mapStreamError(code string) error {
	switch code {
	case "no-speech":
		return domain.ErrNoSpeech
	case "aborted":
		return domain.ErrRecognitionAborted
	case "not-allowed", "service-not-allowed":
		return domain.ErrSpeechPermission
	default:
		return fmt.Errorf("recognition error: %s", code)
	}
}
