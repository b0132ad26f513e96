package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-safety/decoy/internal/domain"
)

// detector is one compiled event detector.
type detector struct {
	event string
	tier  domain.DetectorTier
	match func(raw, normalized string) bool
}

// Normalize canonicalizes a message for keyword matching: all whitespace
// removed, dots and underscores stripped, lowercased. Evasion like
// "주 소" or "ht.tp" collapses back to the plain form.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
		case r == '.', r == '_':
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func keywordDetector(event string, tier domain.DetectorTier, keywords []string) *detector {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if n := Normalize(k); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &detector{
		event: event,
		tier:  tier,
		match: func(_, msg string) bool {
			for _, k := range normalized {
				if strings.Contains(msg, k) {
					return true
				}
			}
			return false
		},
	}
}

// newDetectorEnv builds the CEL environment for config-supplied detector
// expressions. Expressions see the raw message and its normalized form.
func newDetectorEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("message", cel.StringType),
		cel.Variable("normalized", cel.StringType),
	)
}

func expressionDetector(env *cel.Env, event, expr string) (*detector, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile detector for %s: %w", event, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("detector for %s: expression must return bool, got %s", event, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for detector %s: %w", event, err)
	}
	return &detector{
		event: event,
		tier:  domain.TierExpression,
		match: func(raw, normalized string) bool {
			out, _, err := program.Eval(map[string]any{
				"message":    raw,
				"normalized": normalized,
			})
			if err != nil {
				return false
			}
			b, ok := out.(types.Bool)
			return ok && bool(b)
		},
	}, nil
}

// compileDetectors resolves a detector for every event named in the rule
// table. Resolution order: config CEL expression, built-in pattern or
// predicate, curated keyword list, then name-derived heuristic keywords.
// An event no tier can serve is a load error, not a silent no-op.
func compileDetectors(table *domain.RuleTable, logger *slog.Logger) (map[string]*detector, error) {
	env, err := newDetectorEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create detector environment: %w", err)
	}

	events := make(map[string]struct{})
	for _, rules := range table.Groups {
		for _, r := range rules {
			events[r.Event] = struct{}{}
		}
	}

	detectors := make(map[string]*detector, len(events))
	for event := range events {
		if expr, ok := table.Detectors[event]; ok {
			d, err := expressionDetector(env, event, expr)
			if err != nil {
				return nil, err
			}
			detectors[event] = d
			continue
		}
		if re, ok := patternLibrary[event]; ok {
			detectors[event] = &detector{
				event: event,
				tier:  domain.TierPattern,
				match: func(raw, _ string) bool { return re.MatchString(raw) },
			}
			continue
		}
		if pred, ok := predicateLibrary[event]; ok {
			detectors[event] = &detector{event: event, tier: domain.TierPattern, match: pred}
			continue
		}
		if keywords, ok := keywordLibrary[event]; ok {
			detectors[event] = keywordDetector(event, domain.TierKeyword, keywords)
			continue
		}
		if guessed := heuristicKeywords(event); len(guessed) > 0 {
			logger.Warn("event resolved by heuristic keywords, detection will be weak",
				"event", event,
				"keywords", guessed)
			detectors[event] = keywordDetector(event, domain.TierHeuristic, guessed)
			continue
		}
		return nil, fmt.Errorf("no detector available for event %s", event)
	}

	return detectors, nil
}
