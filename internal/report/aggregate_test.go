package report

import (
	"testing"

	"github.com/opensource-safety/decoy/internal/domain"
)

func evalWith(delta float64, events ...domain.TriggeredEvent) *domain.Evaluation {
	return &domain.Evaluation{ScoreDelta: delta, Events: events}
}

func TestAggregateEmptySession(t *testing.T) {
	stats := Aggregate(nil)

	if stats.TotalScore != 0 {
		t.Errorf("expected zero total, got %v", stats.TotalScore)
	}
	if len(stats.TopEvents) != 0 {
		t.Errorf("expected no top events, got %v", stats.TopEvents)
	}
	if len(stats.EventCounts) != 0 || len(stats.CodeCounts) != 0 {
		t.Error("expected empty count maps")
	}
}

func TestAggregateSumsAndCounts(t *testing.T) {
	evals := []*domain.Evaluation{
		evalWith(0.7,
			domain.TriggeredEvent{Event: "name_provided", Code: "delivery.name", Weight: 0.3},
			domain.TriggeredEvent{Event: "address_provided", Code: "delivery.address", Weight: 0.4},
		),
		evalWith(0.5,
			domain.TriggeredEvent{Event: "clicked_link", Code: "common.link", Weight: 0.5},
		),
		evalWith(0.3,
			domain.TriggeredEvent{Event: "name_provided", Code: "delivery.name", Weight: 0.3},
		),
	}

	stats := Aggregate(evals)

	if stats.TotalScore != 1.5 {
		t.Errorf("expected total 1.5, got %v", stats.TotalScore)
	}
	if stats.EventCounts["name_provided"] != 2 {
		t.Errorf("expected name_provided count 2, got %d", stats.EventCounts["name_provided"])
	}
	if stats.CodeCounts["delivery.name"] != 2 {
		t.Errorf("expected delivery.name count 2, got %d", stats.CodeCounts["delivery.name"])
	}

	if len(stats.TopEvents) != 3 {
		t.Fatalf("expected 3 top events, got %d", len(stats.TopEvents))
	}
	if stats.TopEvents[0].Event != "name_provided" || stats.TopEvents[0].WeightSum != 0.6 {
		t.Errorf("expected name_provided with 0.6 on top, got %+v", stats.TopEvents[0])
	}
}

func TestAggregateTopFiveCutoff(t *testing.T) {
	events := []string{"a", "b", "c", "d", "e", "f", "g"}
	var evals []*domain.Evaluation
	for i, ev := range events {
		w := float64(len(events)-i) * 0.1
		evals = append(evals, evalWith(w, domain.TriggeredEvent{Event: ev, Code: ev, Weight: w}))
	}

	stats := Aggregate(evals)

	if len(stats.TopEvents) != 5 {
		t.Fatalf("expected top-5 cutoff, got %d", len(stats.TopEvents))
	}
	if stats.TopEvents[0].Event != "a" || stats.TopEvents[4].Event != "e" {
		t.Errorf("unexpected ranking: %+v", stats.TopEvents)
	}
	// Counts survive the cutoff even for dropped events.
	if stats.EventCounts["g"] != 1 {
		t.Errorf("expected dropped event still counted, got %d", stats.EventCounts["g"])
	}
}

func TestAggregateTieKeepsFirstSeenOrder(t *testing.T) {
	evals := []*domain.Evaluation{
		evalWith(0.5, domain.TriggeredEvent{Event: "second", Code: "x", Weight: 0.5}),
		evalWith(0.5, domain.TriggeredEvent{Event: "first", Code: "y", Weight: 0.5}),
	}

	stats := Aggregate(evals)

	if stats.TopEvents[0].Event != "second" {
		t.Errorf("expected first-seen event to win the tie, got %+v", stats.TopEvents)
	}
}

func TestAggregateNegativeWeights(t *testing.T) {
	evals := []*domain.Evaluation{
		evalWith(-0.3, domain.TriggeredEvent{Event: "refused_to_provide_personal_information", Code: "common.refuse", Weight: -0.3}),
		evalWith(-0.4, domain.TriggeredEvent{Event: "explicitly_ended_conversation", Code: "common.end", Weight: -0.4}),
	}

	stats := Aggregate(evals)

	if stats.TotalScore != -0.7 {
		t.Errorf("expected total -0.7, got %v", stats.TotalScore)
	}
	// Counting is sign-agnostic.
	if stats.EventCounts["explicitly_ended_conversation"] != 1 {
		t.Error("expected protective event to be counted")
	}
}

func TestAggregateSkipsNilEvaluations(t *testing.T) {
	evals := []*domain.Evaluation{
		nil,
		evalWith(0.5, domain.TriggeredEvent{Event: "clicked_link", Code: "common.link", Weight: 0.5}),
		nil,
	}

	stats := Aggregate(evals)

	if stats.TotalScore != 0.5 {
		t.Errorf("expected 0.5, got %v", stats.TotalScore)
	}
}

func TestAggregateRoundsOnceAtEnd(t *testing.T) {
	// 0.1 added ten times is not exactly 1.0 in floating point; the fold
	// rounds only at the output boundary.
	var evals []*domain.Evaluation
	for i := 0; i < 10; i++ {
		evals = append(evals, evalWith(0.1, domain.TriggeredEvent{Event: "clicked_link", Code: "common.link", Weight: 0.1}))
	}

	stats := Aggregate(evals)

	if stats.TotalScore != 1.0 {
		t.Errorf("expected exactly 1.0, got %v", stats.TotalScore)
	}
	if stats.TopEvents[0].WeightSum != 1.0 {
		t.Errorf("expected weight sum exactly 1.0, got %v", stats.TopEvents[0].WeightSum)
	}
}
