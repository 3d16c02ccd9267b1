// Package store holds the single shared mutable document: the current
// guide, its per-step completion flags, the conversation transcript, and
// the eco-swap status. Only the store's own methods mutate this state;
// every reader gets a snapshot.
package store

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Store is the document store. Safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	log *zap.Logger

	docID      string
	guide      *domain.Guide
	completed  []bool
	history    []domain.ChatMessage
	ecoApplied bool
}

// New creates an empty store.
func New(log *zap.Logger) *Store {
	return &Store{log: log}
}

// Load unconditionally replaces the current document. Completion flags are
// reset to all-false sized to the new step list, the eco status is reset,
// and the chat history is cleared — a load starts a fresh conversation.
func (s *Store) Load(g *domain.Guide) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docID = uuid.NewString()
	s.guide = g.Clone()
	s.completed = make([]bool, len(g.Steps))
	s.history = nil
	s.ecoApplied = false

	s.log.Info("document loaded",
		zap.String("doc", s.docID),
		zap.String("title", g.Title),
		zap.Int("materials", len(g.Materials)),
		zap.Int("steps", len(g.Steps)))
}

// Replace swaps in a transformed document. Completion flags are reset —
// step identity is not preserved across transformations — but the chat
// history survives: transformations are conversational continuations.
func (s *Store) Replace(g *domain.Guide) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guide = g.Clone()
	s.completed = make([]bool, len(g.Steps))

	s.log.Info("document replaced",
		zap.String("doc", s.docID),
		zap.Int("steps", len(g.Steps)))
}

// Clear destroys the current document, e.g. after an unrecoverable load
// failure. The transcript is cleared with it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docID = ""
	s.guide = nil
	s.completed = nil
	s.history = nil
	s.ecoApplied = false
}

// ToggleStep flips one completion flag. Out-of-bounds indices are a
// silent no-op — the index may arrive from a stale render.
func (s *Store) ToggleStep(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.completed) {
		s.log.Debug("toggle out of bounds", zap.Int("index", i), zap.Int("steps", len(s.completed)))
		return
	}
	s.completed[i] = !s.completed[i]
}

// Guide returns a snapshot of the current document, or nil when none is
// loaded. The snapshot does not alias the store's state.
func (s *Store) Guide() *domain.Guide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guide.Clone()
}

// HasDocument reports whether a guide is currently loaded.
func (s *Store) HasDocument() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guide != nil
}

// DocumentID identifies the currently loaded document in logs. Changes on
// every Load, empty when nothing is loaded.
func (s *Store) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docID
}

// Completed returns a copy of the per-step completion flags.
func (s *Store) Completed() []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]bool(nil), s.completed...)
}

// CompletedIndices returns the indices of finished steps, in order.
func (s *Store) CompletedIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []int
	for i, done := range s.completed {
		if done {
			out = append(out, i)
		}
	}
	return out
}

// Append adds a message to the transcript. The transcript is append-only.
func (s *Store) Append(role domain.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, domain.ChatMessage{Role: role, Content: content})
}

// History returns a copy of the full ordered transcript.
func (s *Store) History() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatMessage(nil), s.history...)
}

// EcoApplied reports whether an eco-swap has been accepted for the
// current document.
func (s *Store) EcoApplied() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ecoApplied
}

// MarkEcoApplied records a successful eco-swap. Never unset for the
// lifetime of the loaded document; only Load resets it.
func (s *Store) MarkEcoApplied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ecoApplied = true
}

// SetSuggestion attaches the load-time sustainability hint. The hint is
// computed asynchronously after load, so the document ID must still match
// — a stale suggestion for an unloaded document is dropped. An eco-swapped
// document refuses the hint too: the suggestion is one-shot per document
// and an eco transformation has already consumed it.
func (s *Store) SetSuggestion(docID, suggestion string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guide == nil || s.docID != docID || s.ecoApplied {
		s.log.Debug("dropping stale suggestion", zap.String("doc", docID))
		return false
	}
	s.guide.SustainabilitySuggestion = suggestion
	return true
}
