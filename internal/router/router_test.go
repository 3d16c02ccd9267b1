package router

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubClassifier struct {
	summary string
	err     error
}

func (s *stubClassifier) Classify(ctx context.Context, utterance string) (string, error) {
	return s.summary, s.err
}

func TestKeywordRouting(t *testing.T) {
	k := NewKeywordRouter(zap.NewNop())

	cases := []struct {
		utterance string
		want      Kind
	}{
		{"double the recipe", KindTransform},
		{"can you halve it", KindTransform},
		{"scale it up for six people", KindTransform},
		{"convert everything to grams", KindTransform},
		{"use metric please", KindTransform},
		{"swap the butter for oil", KindTransform},
		{"substitute the eggs", KindTransform},
		{"make it vegan", KindTransform},
		{"make this plant-based", KindTransform},
		{"can I do this without dairy", KindTransform},
		{"how long does step three take", KindQuestion},
		{"what can I use instead of a whisk", KindQuestion},
		{"is it supposed to be lumpy", KindQuestion},
		{"", KindQuestion},
		{"   ", KindQuestion},
	}

	for _, tc := range cases {
		got := k.Route(tc.utterance)
		if got.Kind != tc.want {
			t.Errorf("Route(%q) = %s, want %s", tc.utterance, got.Kind, tc.want)
		}
		if got.Kind == KindTransform && got.Summary == "" {
			t.Errorf("Route(%q) transform decision missing summary", tc.utterance)
		}
	}
}

func TestRouterUsesClassifier(t *testing.T) {
	r := New(&stubClassifier{summary: "Doubling the quantities"}, zap.NewNop())

	d := r.Route(context.Background(), "make it bigger somehow")
	if d.Kind != KindTransform {
		t.Fatalf("expected transform, got %s", d.Kind)
	}
	if d.Summary != "Doubling the quantities" {
		t.Fatalf("unexpected summary %q", d.Summary)
	}
}

func TestRouterEmptySummaryMeansQuestion(t *testing.T) {
	r := New(&stubClassifier{summary: ""}, zap.NewNop())

	d := r.Route(context.Background(), "why is it lumpy")
	if d.Kind != KindQuestion {
		t.Fatalf("expected question, got %s", d.Kind)
	}
}

func TestRouterFailsOpenToQuestion(t *testing.T) {
	r := New(&stubClassifier{err: errors.New("model timeout")}, zap.NewNop())

	d := r.Route(context.Background(), "double it")
	if d.Kind != KindQuestion {
		t.Fatalf("classification failure must fall back to question, got %s", d.Kind)
	}
}

func TestRouterNilClassifierFallsBackToKeywords(t *testing.T) {
	r := New(nil, zap.NewNop())

	if d := r.Route(context.Background(), "double it"); d.Kind != KindTransform {
		t.Fatalf("expected keyword policy to match, got %s", d.Kind)
	}
	if d := r.Route(context.Background(), "how hot should the pan be"); d.Kind != KindQuestion {
		t.Fatalf("expected question, got %s", d.Kind)
	}
}
