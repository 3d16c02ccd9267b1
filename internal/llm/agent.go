package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Compile-time interface check.
var _ domain.Generator = (*Agent)(nil)

// Agent binds the generation capability ports to the chat client. It is
// the single entry point for every AI-powered feature.
type Agent struct {
	client *Client
	log    *zap.Logger
}

// NewAgent creates an agent backed by the given client.
func NewAgent(client *Client, log *zap.Logger) *Agent {
	return &Agent{client: client, log: log}
}

// guideResponse is the JSON shape the model returns for extraction and
// transformation. Pointer fields distinguish "omitted" from "false".
type guideResponse struct {
	Title             string   `json:"title"`
	Materials         []string `json:"materials"`
	Steps             []string `json:"steps"`
	IsFood            *bool    `json:"isFood"`
	HasAnimalProducts *bool    `json:"hasAnimalProducts"`
}

func (r *guideResponse) toGuide() *domain.Guide {
	return &domain.Guide{
		Title:             r.Title,
		Materials:         r.Materials,
		Steps:             r.Steps,
		IsFood:            r.IsFood,
		HasAnimalProducts: r.HasAnimalProducts,
	}
}

// ── Extraction ───────────────────────────────────────────────────

// ExtractGuide structures raw page text into a guide. The caller (the
// extract package) attaches sources and wraps failures as ErrExtraction.
func (a *Agent) ExtractGuide(ctx context.Context, pageText string) (*domain.Guide, error) {
	raw, err := a.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: PromptExtract},
		{Role: RoleUser, Content: pageText},
	})
	if err != nil {
		return nil, err
	}

	resp, err := parseGuideJSON(raw)
	if err != nil {
		a.log.Error("extract response unparseable", zap.Error(err))
		return nil, err
	}
	if resp.Title == "" {
		return nil, fmt.Errorf("page yielded no structured instructions")
	}

	a.log.Debug("guide extracted",
		zap.String("title", resp.Title),
		zap.Int("materials", len(resp.Materials)),
		zap.Int("steps", len(resp.Steps)))
	return resp.toGuide(), nil
}

// ── domain.Generator ─────────────────────────────────────────────

// Transform sends the whole guide plus the instruction and returns the
// complete replacement document the model produced.
func (a *Agent) Transform(ctx context.Context, guide *domain.Guide, instruction string) (*domain.Guide, error) {
	current, err := json.Marshal(guideResponse{
		Title:             guide.Title,
		Materials:         guide.Materials,
		Steps:             guide.Steps,
		IsFood:            guide.IsFood,
		HasAnimalProducts: guide.HasAnimalProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal guide: %w", err)
	}

	raw, err := a.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: PromptTransform},
		{Role: RoleUser, Content: "Current guide:\n" + string(current)},
		{Role: RoleAssistant, Content: "Got it, I have the guide."},
		{Role: RoleUser, Content: instruction},
	})
	if err != nil {
		return nil, err
	}

	resp, err := parseGuideJSON(raw)
	if err != nil {
		a.log.Error("transform response unparseable", zap.Error(err))
		return nil, err
	}
	return resp.toGuide(), nil
}

// Answer replays the ordered transcript and answers the new utterance
// against the guide, skipping steps the user already completed.
func (a *Agent) Answer(ctx context.Context, guide *domain.Guide, history []domain.ChatMessage, utterance string, completed []int) (string, error) {
	msgs := []Message{
		{Role: RoleSystem, Content: PromptAnswer},
		{Role: RoleUser, Content: buildGuideContext(guide, completed)},
		{Role: RoleAssistant, Content: "Got it, I have the guide."},
	}
	for _, m := range history {
		role := RoleUser
		if m.Role == domain.RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: utterance})

	return a.client.Chat(ctx, msgs)
}

// classifyResponse is the JSON the model returns for classification.
type classifyResponse struct {
	Transform bool   `json:"transform"`
	Summary   string `json:"summary"`
}

// Classify returns a summary of the intended change for transformation
// requests and "" for questions. Parse failures are reported as errors so
// the router can fail open to the question path.
func (a *Agent) Classify(ctx context.Context, utterance string) (string, error) {
	raw, err := a.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: PromptClassify},
		{Role: RoleUser, Content: utterance},
	})
	if err != nil {
		return "", err
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return "", fmt.Errorf("llm: parse classify response: %w", err)
	}

	if !resp.Transform {
		return "", nil
	}
	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		summary = "Applying your change."
	}
	a.log.Debug("utterance classified as transform", zap.String("summary", summary))
	return summary, nil
}

// Suggest returns a sustainability hint, or "" when the model has none.
func (a *Agent) Suggest(ctx context.Context, title string, materials []string) (string, error) {
	raw, err := a.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: PromptSuggest},
		{Role: RoleUser, Content: title + "\n\n" + strings.Join(materials, "\n")},
	})
	if err != nil {
		return "", err
	}

	suggestion := strings.TrimSpace(stripCodeFence(raw))
	if strings.EqualFold(suggestion, "NONE") {
		return "", nil
	}
	return suggestion, nil
}

// ── Helpers ──────────────────────────────────────────────────────

// buildGuideContext serializes the guide and completion state into a
// plain-text block the model can reason over.
func buildGuideContext(guide *domain.Guide, completed []int) string {
	var b strings.Builder
	b.WriteString("[Current Guide]\n")
	fmt.Fprintf(&b, "Title: %s\n", guide.Title)

	b.WriteString("\nMaterials:\n")
	for _, m := range guide.Materials {
		fmt.Fprintf(&b, "- %s\n", m)
	}

	done := make(map[int]bool, len(completed))
	for _, i := range completed {
		done[i] = true
	}

	b.WriteString("\nSteps:\n")
	for i, s := range guide.Steps {
		status := "not done"
		if done[i] {
			status = "COMPLETED"
		}
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, status, s)
	}

	if guide.SustainabilitySuggestion != "" {
		fmt.Fprintf(&b, "\nSustainability hint: %s\n", guide.SustainabilitySuggestion)
	}
	return b.String()
}

// parseGuideJSON unwraps code fences and unmarshals a guide response.
func parseGuideJSON(raw string) (*guideResponse, error) {
	var resp guideResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("llm: parse guide response: %w", err)
	}
	return &resp, nil
}

// stripCodeFence removes ```json ... ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line.
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
