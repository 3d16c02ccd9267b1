package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/display"
	"github.com/hazieon/Assist-chan-2026/internal/domain"
	"github.com/hazieon/Assist-chan-2026/internal/engine"
	"github.com/hazieon/Assist-chan-2026/internal/router"
	"github.com/hazieon/Assist-chan-2026/internal/speech"
	"github.com/hazieon/Assist-chan-2026/internal/store"
)

// Canned instructions behind the one-word quick actions. They run through
// the same transformation path as free-form requests.
const (
	instrDouble   = "Double all quantities in this guide."
	instrHalve    = "Halve all quantities in this guide."
	instrMetric   = "Convert all measurements in this guide to metric units."
	instrImperial = "Convert all measurements in this guide to imperial units."
	instrEco      = "Replace every animal-derived material in this guide with a plant-based alternative, adjusting the steps to match."
)

// app coordinates the session: one guide, one conversation, one voice.
type app struct {
	store     *store.Store
	extractor domain.Extractor // nil when the language model is disabled
	gen       domain.Generator // nil when the language model is disabled
	engine    *engine.Transformer
	router    *router.Router
	speaker   *speech.Speaker
	listener  *speech.Listener // nil when voice input is disabled
	ui        *display.UI
	log       *zap.Logger

	// One outstanding operation per class. A second request of the same
	// class is refused, not queued.
	mu        sync.Mutex
	loading   bool
	answering bool
	modifying bool
}

// status feeds the UI's bottom bar. Called from the UI's event loop.
func (a *app) status() display.Status {
	st := display.Status{}

	if g := a.store.Guide(); g != nil {
		st.Title = g.Title
		st.TotalSteps = len(g.Steps)
		for _, done := range a.store.Completed() {
			if done {
				st.DoneSteps++
			}
		}
	}

	st.Muted = a.speaker.Muted()
	if a.listener != nil {
		st.Listening = a.listener.Listening()
	}

	a.mu.Lock()
	switch {
	case a.loading:
		st.Busy = "loading"
	case a.modifying:
		st.Busy = "updating"
	case a.answering:
		st.Busy = "thinking"
	}
	a.mu.Unlock()

	return st
}

// say prints a conversational line and narrates it. The completion
// channel is buffered, so dropping it never blocks the speaker.
func (a *app) say(ctx context.Context, text string) {
	a.ui.PrintChat(text)
	_ = a.speaker.Speak(ctx, text)
}

func (a *app) sayUrgent(ctx context.Context, text string) {
	a.ui.PrintUrgent(text)
	_ = a.speaker.Speak(ctx, text)
}

func (a *app) run(ctx context.Context) {
	a.say(ctx, "Hi! Paste a link to a how-to page and I'll walk you through it.")

	// Voice channels (nil-safe: receiving on a nil channel blocks forever,
	// which is fine — select will only use the keyboard case).
	var voiceCh <-chan string
	var noticeCh <-chan string
	if a.listener != nil {
		voiceCh = a.listener.Utterances()
		noticeCh = a.listener.Notices()
	}

	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			// Print what was heard so the user sees it in the REPL.
			a.ui.PrintVoice(input)
		case notice := <-noticeCh:
			a.sayUrgent(ctx, notice)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if a.dispatch(ctx, input) {
			return
		}
	}
}

// dispatch handles one input line. Returns true when the app should quit.
func (a *app) dispatch(ctx context.Context, input string) bool {
	// Any user action interrupts the narration in progress, so the
	// assistant doesn't keep talking over its own response.
	a.speaker.Cancel()

	if isWebAddress(input) {
		a.loadGuide(ctx, input)
		return false
	}

	cmd, rest := splitCommand(input)

	switch cmd {
	case "help":
		a.showHelp()
	case "quit", "exit":
		a.say(ctx, "Bye! Good luck out there.")
		// Brief pause so the goodbye line starts playing.
		time.Sleep(300 * time.Millisecond)
		return true
	case "show", "guide", "steps":
		a.showGuide()
	case "read":
		a.readSteps(ctx)
	case "done", "check", "toggle":
		a.toggleStep(rest)
	case "mute":
		a.speaker.SetMuted(true)
		a.ui.PrintHint("Narration muted.")
	case "unmute":
		a.speaker.SetMuted(false)
		a.say(ctx, "Narration back on.")
	case "listen":
		a.setListening(ctx, true)
	case "stop":
		a.setListening(ctx, false)
	case "double":
		a.transform(ctx, instrDouble, "The quantities are doubled", false, false)
	case "halve", "half":
		a.transform(ctx, instrHalve, "The quantities are halved", false, false)
	case "metric":
		a.transform(ctx, instrMetric, "Everything is in metric now", false, false)
	case "imperial":
		a.transform(ctx, instrImperial, "Everything is in imperial units now", false, false)
	case "eco", "vegan":
		a.transform(ctx, instrEco, "", true, false)
	default:
		a.handleUtterance(ctx, input)
	}
	return false
}

// isWebAddress reports whether the input looks like a page address.
func isWebAddress(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// splitCommand separates the leading command word from its argument. The
// command matches case-insensitively; the argument keeps the user's
// casing. Lowercasing can change a rune's byte length, so the original
// string is never sliced by lowered offsets.
func splitCommand(input string) (cmd, rest string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", ""
	}
	cmd = strings.ToLower(fields[0])
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), fields[0]))
	return cmd, rest
}

// ── Loading ──────────────────────────────────────────────────────

func (a *app) loadGuide(ctx context.Context, pageURL string) {
	if a.extractor == nil {
		a.sayUrgent(ctx, "I need the language model for that. Set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT to enable it.")
		return
	}

	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		a.ui.PrintHint("Still working on the previous page, one moment.")
		return
	}
	a.loading = true
	a.mu.Unlock()

	a.ui.PrintHint("Fetching the page...")

	go func() {
		defer func() {
			a.mu.Lock()
			a.loading = false
			a.mu.Unlock()
		}()

		guide, err := a.extractor.Extract(ctx, pageURL)
		if err != nil {
			a.log.Error("extraction failed", zap.String("url", pageURL), zap.Error(err))
			// A failed load leaves no document behind.
			a.store.Clear()
			a.sayUrgent(ctx, "I couldn't get a guide out of that page. Paste another link and we'll try that one.")
			return
		}

		a.store.Load(guide)
		a.showGuide()
		a.say(ctx, fmt.Sprintf("Loaded %q. %d steps. Say 'read' and I'll walk you through them.", guide.Title, len(guide.Steps)))

		a.suggestInBackground(ctx, guide)
	}()
}

// suggestInBackground asks for a one-shot sustainability hint after a
// food guide loads. The store drops the result if another document was
// loaded in the meantime.
func (a *app) suggestInBackground(ctx context.Context, guide *domain.Guide) {
	if a.gen == nil || guide.IsFood == nil || !*guide.IsFood {
		return
	}
	if guide.SustainabilitySuggestion != "" {
		return
	}

	docID := a.store.DocumentID()
	go func() {
		suggestion, err := a.gen.Suggest(ctx, guide.Title, guide.Materials)
		if err != nil {
			a.log.Warn("suggestion failed", zap.Error(err))
			return
		}
		if suggestion == "" {
			return
		}
		if a.store.SetSuggestion(docID, suggestion) {
			a.ui.PrintHint("♻ " + suggestion)
		}
	}()
}

// ── Conversation ─────────────────────────────────────────────────

// handleUtterance routes free-form input: either a transformation request
// or a question about the guide. Exactly one of the two runs.
func (a *app) handleUtterance(ctx context.Context, utterance string) {
	if a.gen == nil {
		a.ui.PrintHint("I can only take commands right now. Set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT for questions and changes.")
		return
	}
	if !a.store.HasDocument() {
		a.say(ctx, "Load a guide first. Paste a link and I'll take it from there.")
		return
	}

	decision := a.router.Route(ctx, utterance)
	a.log.Debug("routed utterance",
		zap.String("kind", decision.Kind.String()),
		zap.String("utterance", utterance))

	switch decision.Kind {
	case router.KindTransform:
		a.transform(ctx, utterance, decision.Summary, false, true)
	default:
		a.answer(ctx, utterance)
	}
}

func (a *app) answer(ctx context.Context, question string) {
	a.mu.Lock()
	if a.answering {
		a.mu.Unlock()
		a.ui.PrintHint("Still thinking about your last question.")
		return
	}
	a.answering = true
	a.mu.Unlock()

	a.store.Append(domain.RoleUser, question)
	a.ui.PrintHint("Thinking...")

	go func() {
		defer func() {
			a.mu.Lock()
			a.answering = false
			a.mu.Unlock()
		}()

		guide := a.store.Guide()
		history := a.store.History()
		completed := a.store.CompletedIndices()

		reply, err := a.gen.Answer(ctx, guide, history, question, completed)
		if err != nil {
			a.log.Error("answer failed", zap.Error(err))
			// The conversation continues; record the miss so the
			// transcript stays coherent.
			msg := "Sorry, I had trouble processing that. Try again?"
			a.store.Append(domain.RoleAssistant, msg)
			a.sayUrgent(ctx, msg)
			return
		}

		a.store.Append(domain.RoleAssistant, reply)
		a.say(ctx, reply)
	}()
}

// transform applies one change to the guide. record marks conversational
// requests: the instruction joins the transcript as a user turn, but only
// once the request is actually accepted — a refused request must not
// leave an orphan message in the append-only history.
func (a *app) transform(ctx context.Context, instruction, summary string, eco, record bool) {
	if a.gen == nil {
		a.ui.PrintHint("Changes need the language model. Set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT to enable it.")
		return
	}

	a.mu.Lock()
	if a.modifying {
		a.mu.Unlock()
		a.ui.PrintHint("Still applying the previous change, one moment.")
		return
	}
	a.modifying = true
	a.mu.Unlock()

	if record {
		a.store.Append(domain.RoleUser, instruction)
	}

	a.ui.PrintHint("Updating the guide...")

	go func() {
		defer func() {
			a.mu.Lock()
			a.modifying = false
			a.mu.Unlock()
		}()

		confirmation, err := a.engine.Apply(ctx, instruction, summary, eco)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNoDocument):
				a.say(ctx, "Load a guide first. Paste a link and I'll take it from there.")
			case errors.Is(err, domain.ErrEcoAlreadyApplied):
				a.say(ctx, "This guide already has the plant-based swaps applied.")
			default:
				a.log.Error("transformation failed", zap.Error(err))
				msg := "That change didn't work out. The guide is unchanged."
				a.store.Append(domain.RoleAssistant, msg)
				a.sayUrgent(ctx, msg)
			}
			return
		}

		a.showGuide()
		a.say(ctx, confirmation)
	}()
}

// ── Guide display and narration ──────────────────────────────────

func (a *app) showGuide() {
	guide := a.store.Guide()
	if guide == nil {
		a.ui.PrintHint("Nothing loaded yet. Paste a link to get started.")
		return
	}
	completed := a.store.Completed()

	a.ui.Println("")
	a.ui.PrintHeading("=== " + guide.Title + " ===")

	if len(guide.Materials) > 0 {
		a.ui.Println("")
		a.ui.PrintHeading("You'll need:")
		for _, m := range guide.Materials {
			a.ui.PrintInstruction("- " + m)
		}
	}

	a.ui.Println("")
	a.ui.PrintHeading("Steps:")
	for i, step := range guide.Steps {
		done := i < len(completed) && completed[i]
		a.ui.PrintStep(i+1, step, done)
	}

	for _, src := range guide.Sources {
		label := src.URI
		if src.Title != "" {
			label = src.Title + " (" + src.URI + ")"
		}
		a.ui.PrintHint("from " + label)
	}

	if guide.SustainabilitySuggestion != "" {
		a.ui.PrintHint("♻ " + guide.SustainabilitySuggestion)
	}
	if guide.HasAnimalProducts != nil && *guide.HasAnimalProducts && !a.store.EcoApplied() {
		a.ui.PrintHint("Type 'eco' to swap in plant-based alternatives.")
	}
	a.ui.Println("")
}

// readSteps narrates the full guide, steps in order.
func (a *app) readSteps(ctx context.Context) {
	guide := a.store.Guide()
	if guide == nil {
		a.say(ctx, "Load a guide first. Paste a link and I'll take it from there.")
		return
	}
	if len(guide.Steps) == 0 {
		a.say(ctx, "This guide has no steps to read.")
		return
	}

	a.showGuide()

	var sb strings.Builder
	sb.WriteString(guide.Title)
	sb.WriteString(". ")
	for i, step := range guide.Steps {
		fmt.Fprintf(&sb, "Step %d. %s ", i+1, step)
	}

	done := a.speaker.Speak(ctx, sb.String())
	go func() {
		if err := <-done; err != nil && !errors.Is(err, domain.ErrNothingToSay) {
			a.log.Warn("narration failed", zap.Error(err))
		}
	}()
}

// toggleStep flips the completion mark on a 1-based step number.
func (a *app) toggleStep(arg string) {
	guide := a.store.Guide()
	if guide == nil {
		a.ui.PrintHint("Nothing loaded yet. Paste a link to get started.")
		return
	}

	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		a.ui.PrintHint("Which step? Try 'done 3'.")
		return
	}
	if n < 1 || n > len(guide.Steps) {
		a.ui.PrintHint(fmt.Sprintf("This guide has steps 1 through %d.", len(guide.Steps)))
		return
	}

	a.store.ToggleStep(n - 1)

	completed := a.store.Completed()
	doneCount := 0
	for _, d := range completed {
		if d {
			doneCount++
		}
	}
	a.ui.PrintStep(n, guide.Steps[n-1], completed[n-1])
	a.ui.PrintHint(fmt.Sprintf("%d of %d steps done.", doneCount, len(guide.Steps)))
}

// ── Voice control ────────────────────────────────────────────────

func (a *app) setListening(ctx context.Context, on bool) {
	if a.listener == nil {
		a.ui.PrintHint("Voice input isn't set up. Start with --voice whisper or --voice stream.")
		return
	}
	a.listener.SetListening(on)
	if on {
		a.say(ctx, "I'm listening.")
	} else {
		a.ui.PrintHint("Microphone off.")
	}
}

// ── Help ─────────────────────────────────────────────────────────

func (a *app) showHelp() {
	a.ui.PrintHeading("Commands:")
	a.ui.PrintInstruction("  https://...       Load a guide from a page")
	a.ui.PrintInstruction("  show / steps      Show the loaded guide")
	a.ui.PrintInstruction("  read              Read the steps aloud")
	a.ui.PrintInstruction("  done N            Mark step N finished (again to undo)")
	a.ui.PrintInstruction("  double / halve    Scale all quantities")
	a.ui.PrintInstruction("  metric / imperial Convert measurements")
	a.ui.PrintInstruction("  eco               Swap in plant-based alternatives")
	a.ui.PrintInstruction("  mute / unmute     Toggle narration")
	a.ui.PrintInstruction("  listen / stop     Toggle the microphone")
	a.ui.PrintInstruction("  help              Show this message")
	a.ui.PrintInstruction("  quit / exit       Exit")
	a.ui.Println("")
	a.ui.PrintHeading("Anything else is a conversation:")
	a.ui.PrintInstruction("  can I use ...?    Ask a question about the guide")
	a.ui.PrintInstruction("  make it for 6     Ask for a change in your own words")
}
