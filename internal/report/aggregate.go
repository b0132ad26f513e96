// Package report folds per-message evaluations into a session-level grade
// and Korean-language feedback.
package report

import (
	"math"
	"sort"

	"github.com/opensource-safety/decoy/internal/domain"
)

// Aggregate folds an ordered evaluation sequence into session statistics.
// Evaluations are trusted as produced; a nil entry is skipped the same way
// a malformed stored record is skipped upstream.
func Aggregate(evals []*domain.Evaluation) *domain.AggregateStats {
	stats := &domain.AggregateStats{
		TopEvents:   []domain.TopEvent{},
		EventCounts: make(map[string]int),
		CodeCounts:  make(map[string]int),
	}

	var total float64
	eventWeights := make(map[string]float64)
	firstSeen := make(map[string]int)

	for _, e := range evals {
		if e == nil {
			continue
		}
		total += e.ScoreDelta
		for _, ev := range e.Events {
			event := ev.Event
			if event == "" {
				event = "unknown"
			}
			code := ev.Code
			if code == "" {
				code = "unknown"
			}
			if _, ok := firstSeen[event]; !ok {
				firstSeen[event] = len(firstSeen)
			}
			stats.EventCounts[event]++
			stats.CodeCounts[code]++
			eventWeights[event] += ev.Weight
		}
	}

	ranked := make([]domain.TopEvent, 0, len(eventWeights))
	for event, sum := range eventWeights {
		ranked = append(ranked, domain.TopEvent{
			Event:     event,
			WeightSum: round2(sum),
			Count:     stats.EventCounts[event],
		})
	}
	// Highest weight sum first; ties keep first-seen order so repeated
	// aggregation of the same session is deterministic.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].WeightSum != ranked[j].WeightSum {
			return ranked[i].WeightSum > ranked[j].WeightSum
		}
		return firstSeen[ranked[i].Event] < firstSeen[ranked[j].Event]
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	stats.TopEvents = ranked

	stats.TotalScore = round2(total)
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
