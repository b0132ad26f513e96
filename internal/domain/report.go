package domain

import (
	"time"
)

// TopEvent is one entry of the session's top-events ranking.
type TopEvent struct {
	Event     string  `json:"event"`
	WeightSum float64 `json:"weightSum"`
	Count     int     `json:"count"`
}

// AggregateStats is the session-wide fold of all per-message evaluations.
// Derived purely from the evaluation sequence; holds no independent state.
type AggregateStats struct {
	TotalScore  float64        `json:"totalScore"`
	TopEvents   []TopEvent     `json:"topEvents"`
	EventCounts map[string]int `json:"eventCounts"`
	CodeCounts  map[string]int `json:"codeCounts"`
}

// Grade is the coarse risk tier derived from the aggregate score.
type Grade struct {
	Level string `json:"level"` // "LOW", "MEDIUM", "HIGH"
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// Grade levels.
const (
	GradeLow    = "LOW"
	GradeMedium = "MEDIUM"
	GradeHigh   = "HIGH"
)

// Report is the end-of-session feedback bundle returned to the caller.
type Report struct {
	RoomID       string     `json:"roomId"`
	Scenario     string     `json:"scenario"`
	Goal         string     `json:"goal"`
	Grade        Grade      `json:"grade"`
	DisplayScore int        `json:"totalScore"`
	TopEvents    []TopEvent `json:"topEvents"`
	Summary      string     `json:"summary"`
	OneLiner     string     `json:"oneLiner"`
	DidWell      []string   `json:"didWell"`
	Improve      []string   `json:"improve"`
	Tips         []string   `json:"tips"`
	GeneratedAt  time.Time  `json:"generatedAt"`
}

// SessionSummary is the compact per-session row persisted by the digest
// worker when a session-ended event is consumed.
type SessionSummary struct {
	ID           string     `json:"id"`
	RoomID       string     `json:"roomId"`
	ScenarioType string     `json:"scenarioType"`
	Level        string     `json:"level"`
	DisplayScore int        `json:"displayScore"`
	TotalScore   float64    `json:"totalScore"`
	TopEvents    []TopEvent `json:"topEvents"`
	CreatedAt    time.Time  `json:"createdAt"`
}
