// Package domain defines the core interfaces and types for Decoy.
package domain

// Rule links a detectable user behavior to a scoring contribution.
// Weight may be positive (risky behavior) or negative (protective behavior);
// aggregation is sign-agnostic.
type Rule struct {
	Event       string  `json:"event"`
	Weight      float64 `json:"weight"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
}

// RuleTable groups rules by scenario key. The CommonKey group applies to
// every scenario in addition to its own group.
type RuleTable struct {
	// Groups maps scenario key (or CommonKey) to an ordered rule list.
	Groups map[string][]Rule `json:"groups"`

	// Detectors optionally binds events to CEL expressions, overriding the
	// built-in detector resolution for those events.
	Detectors map[string]string `json:"detectors,omitempty"`
}

// CommonKey is the rule group applied to every scenario.
const CommonKey = "common"

// TriggeredEvent is one fired rule within a message evaluation.
type TriggeredEvent struct {
	Code        string  `json:"code"`
	Event       string  `json:"event"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Evaluation is the result of scoring a single user message. It is immutable
// once produced and appended to the room's message log as a system record.
type Evaluation struct {
	ScoreDelta float64          `json:"scoreDelta"`
	Events     []TriggeredEvent `json:"events"`
}

// DetectorTier identifies how a detector was resolved for an event.
type DetectorTier string

const (
	// TierExpression is a config-supplied CEL predicate.
	TierExpression DetectorTier = "expression"

	// TierPattern is a built-in regex or multi-condition predicate.
	TierPattern DetectorTier = "pattern"

	// TierKeyword is a curated keyword-membership test.
	TierKeyword DetectorTier = "keyword"

	// TierHeuristic is a keyword set guessed from the event name.
	// Low precision; compilation logs these as weak detectors.
	TierHeuristic DetectorTier = "heuristic"
)

// DetectorInfo describes one compiled detector, for inventory endpoints.
type DetectorInfo struct {
	Event string       `json:"event"`
	Tier  DetectorTier `json:"tier"`
}
