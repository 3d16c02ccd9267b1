package router

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// KeywordRouter matches transformation phrasing with keywords and simple
// patterns. It is the no-LLM routing policy; swap in the classifier when
// generation credentials are available.
type KeywordRouter struct {
	log      *zap.Logger
	patterns []patternRule
}

type patternRule struct {
	regex   *regexp.Regexp
	summary string
}

// NewKeywordRouter creates the keyword-based routing policy.
func NewKeywordRouter(log *zap.Logger) *KeywordRouter {
	k := &KeywordRouter{log: log}
	k.patterns = []patternRule{
		{regexp.MustCompile(`(?i)\b(double|triple|halve|half)\b`), "Scaling the quantities"},
		{regexp.MustCompile(`(?i)\bscale\b.*\b(up|down|to|by)\b`), "Scaling the quantities"},
		{regexp.MustCompile(`(?i)\bconvert\b`), "Converting the units"},
		{regexp.MustCompile(`(?i)\b(metric|imperial|grams?|ounces?|cups?|celsius|fahrenheit)\b.*\b(instead|convert|use|switch)\b`), "Converting the units"},
		{regexp.MustCompile(`(?i)\b(use|switch to)\b.*\b(metric|imperial)\b`), "Converting the units"},
		{regexp.MustCompile(`(?i)\b(substitute|swap|replace)\b`), "Substituting materials"},
		{regexp.MustCompile(`(?i)\bmake (it|this)\b.*\b(vegan|vegetarian|plant.based|sustainable)\b`), "Swapping in plant-based alternatives"},
		{regexp.MustCompile(`(?i)\bwithout\b.*\b(meat|dairy|eggs?|animal)\b`), "Swapping in plant-based alternatives"},
	}
	return k
}

// Route applies the keyword policy to one utterance.
func (k *KeywordRouter) Route(utterance string) Decision {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Decision{Kind: KindQuestion}
	}

	for _, rule := range k.patterns {
		if rule.regex.MatchString(trimmed) {
			k.log.Debug("keyword policy matched transform",
				zap.String("summary", rule.summary))
			return Decision{Kind: KindTransform, Summary: rule.summary}
		}
	}
	return Decision{Kind: KindQuestion}
}
