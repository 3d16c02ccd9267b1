package display

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func testModel(inputCh chan string) (model, *[]string) {
	var hints []string
	ti := textinput.New()
	ti.Focus()
	return model{
		input:   ti,
		inputCh: inputCh,
		echoFn:  func(string) {},
		hintFn:  func(v string) { hints = append(hints, v) },
	}, &hints
}

func pressEnter(t *testing.T, m model, value string) (model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(value)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestEnterDeliversInput(t *testing.T) {
	inputCh := make(chan string, 2)
	m, hints := testModel(inputCh)

	m, cmd := pressEnter(t, m, "double the recipe")
	if cmd == nil {
		t.Fatal("expected an echo command")
	}
	cmd()

	select {
	case got := <-inputCh:
		if got != "double the recipe" {
			t.Errorf("delivered %q", got)
		}
	default:
		t.Fatal("input never reached the channel")
	}
	if len(*hints) != 0 {
		t.Errorf("unexpected hint: %v", *hints)
	}
	if m.input.Value() != "" {
		t.Errorf("input not reset: %q", m.input.Value())
	}
}

func TestEnterDropsInputWhenQueueFull(t *testing.T) {
	inputCh := make(chan string, 1)
	inputCh <- "queued"
	m, hints := testModel(inputCh)

	_, cmd := pressEnter(t, m, "one more line")
	if cmd == nil {
		t.Fatal("expected a hint command")
	}
	cmd()

	if len(*hints) != 1 {
		t.Fatalf("expected one hint, got %v", *hints)
	}
	if len(inputCh) != 1 {
		t.Fatalf("queue length changed: %d", len(inputCh))
	}
	if got := <-inputCh; got != "queued" {
		t.Errorf("queued input clobbered: %q", got)
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	inputCh := make(chan string, 1)
	m, hints := testModel(inputCh)

	_, cmd := pressEnter(t, m, "   ")
	if cmd != nil {
		t.Fatal("blank input should produce no command")
	}
	if len(inputCh) != 0 || len(*hints) != 0 {
		t.Fatal("blank input should be ignored entirely")
	}
}
