// Package engine implements the transformation engine: it applies a
// natural-language transformation request to the current document through
// the generation capability and merges the result back into the store
// under the documented invariants.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
	"github.com/hazieon/Assist-chan-2026/internal/store"
)

// Transformer applies transformation requests. The store is the only
// thing it writes; on any failure the store is left untouched.
type Transformer struct {
	store *store.Store
	gen   domain.Generator
	log   *zap.Logger
}

// New creates a transformation engine.
func New(st *store.Store, gen domain.Generator, log *zap.Logger) *Transformer {
	return &Transformer{store: st, gen: gen, log: log}
}

// Apply sends the current document plus the instruction to the generation
// capability, validates and merges the returned document, replaces the
// store's document, appends a confirmation to the transcript, and returns
// the confirmation for narration.
//
// summary, when non-empty, seeds the confirmation message (it comes from
// the intent classifier). eco marks a sustainability swap: the result is
// forced to HasAnimalProducts=false, the one-shot suggestion is cleared,
// and the eco status is set permanently for this document.
func (t *Transformer) Apply(ctx context.Context, instruction, summary string, eco bool) (string, error) {
	prior := t.store.Guide()
	if prior == nil {
		return "", domain.ErrNoDocument
	}
	if eco && t.store.EcoApplied() {
		// The affordance should already be inert; refuse without a
		// capability call.
		return "", domain.ErrEcoAlreadyApplied
	}

	next, err := t.gen.Transform(ctx, prior, instruction)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransformation, err)
	}
	if err := validate(next); err != nil {
		t.log.Warn("malformed transformation result", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrTransformation, err)
	}

	merge(next, prior, eco)

	if eco {
		next.HasAnimalProducts = domain.Bool(false)
		next.SustainabilitySuggestion = ""
	}

	t.store.Replace(next)
	if eco {
		t.store.MarkEcoApplied()
	}

	confirmation := confirmationMessage(summary, eco)
	t.store.Append(domain.RoleAssistant, confirmation)

	t.log.Info("transformation applied",
		zap.String("doc", t.store.DocumentID()),
		zap.Bool("eco", eco),
		zap.Int("steps", len(next.Steps)))
	return confirmation, nil
}

// validate rejects malformed capability responses. A partial document is
// never merged.
func validate(g *domain.Guide) error {
	if g == nil {
		return fmt.Errorf("nil document")
	}
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("empty title")
	}
	if g.Materials == nil {
		return fmt.Errorf("missing materials list")
	}
	if g.Steps == nil {
		return fmt.Errorf("missing steps list")
	}
	return nil
}

// merge carries forward the fields the transformation call does not own:
// sources and the extraction-time food flag always, the sustainability
// suggestion and animal-products flag only when the new document omits
// them and this call is not itself setting eco status.
func merge(next, prior *domain.Guide, eco bool) {
	next.Sources = prior.Sources
	next.IsFood = prior.IsFood

	if !eco {
		if next.HasAnimalProducts == nil {
			next.HasAnimalProducts = prior.HasAnimalProducts
		}
		if next.SustainabilitySuggestion == "" {
			next.SustainabilitySuggestion = prior.SustainabilitySuggestion
		}
	}
}

func confirmationMessage(summary string, eco bool) string {
	if eco {
		return "Done. I've swapped in plant-based alternatives and marked the guide as sustainably adjusted."
	}
	if summary != "" {
		return "Done. " + strings.TrimSuffix(summary, ".") + "."
	}
	return "Done. I've updated the guide."
}
