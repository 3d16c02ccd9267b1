// Package router decides, per user utterance, whether it requests a
// transformation of the document or asks a question about it. Exactly one
// of the two paths runs per utterance.
package router

import (
	"context"

	"go.uber.org/zap"
)

// Kind is the routing outcome.
type Kind int

const (
	// KindQuestion routes to the question-answering capability.
	KindQuestion Kind = iota
	// KindTransform routes to the transformation engine with the
	// original utterance as the instruction.
	KindTransform
)

// String returns a human-readable kind.
func (k Kind) String() string {
	switch k {
	case KindQuestion:
		return "question"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// Decision is the result of routing one utterance.
type Decision struct {
	Kind Kind
	// Summary is the classifier's short description of the intended
	// change. Transform decisions only; it seeds the confirmation
	// message, never the instruction itself.
	Summary string
}

// Classifier is the slice of the generation capability the router needs.
// A return of "" means "not a transformation".
type Classifier interface {
	Classify(ctx context.Context, utterance string) (string, error)
}

// Router routes utterances. With a classifier it uses the classification
// call; without one it falls back to the keyword policy. Classification
// failures fail open to the question path so no utterance is ever dropped.
type Router struct {
	classifier Classifier
	keywords   *KeywordRouter
	log        *zap.Logger
}

// New creates a router. classifier may be nil, in which case the keyword
// policy is used for every utterance.
func New(classifier Classifier, log *zap.Logger) *Router {
	return &Router{
		classifier: classifier,
		keywords:   NewKeywordRouter(log),
		log:        log,
	}
}

// Route classifies one utterance. It never fails: any classification
// error downgrades to the question path.
func (r *Router) Route(ctx context.Context, utterance string) Decision {
	if r.classifier == nil {
		return r.keywords.Route(utterance)
	}

	summary, err := r.classifier.Classify(ctx, utterance)
	if err != nil {
		r.log.Warn("classification failed, routing to question path", zap.Error(err))
		return Decision{Kind: KindQuestion}
	}
	if summary == "" {
		return Decision{Kind: KindQuestion}
	}
	return Decision{Kind: KindTransform, Summary: summary}
}
