package report

import (
	"strings"
	"testing"
	"time"

	"github.com/opensource-safety/decoy/internal/domain"
)

func TestGradeBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		level string
	}{
		{1.5, domain.GradeHigh},
		{0.8, domain.GradeHigh},
		{0.79, domain.GradeMedium},
		{0.3, domain.GradeMedium},
		{0.29, domain.GradeLow},
		{0, domain.GradeLow},
		{-2.0, domain.GradeLow},
	}

	for _, tt := range tests {
		if got := GradeFor(tt.score); got.Level != tt.level {
			t.Errorf("GradeFor(%v) = %s, want %s", tt.score, got.Level, tt.level)
		}
	}
}

func TestDisplayScore(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 100},
		{-5, 100},
		{0.3, 70},
		{0.75, 25},
		{1.0, 0},
		{1.5, 0},
		{0.005, 99},
	}

	for _, tt := range tests {
		if got := DisplayScore(tt.score); got != tt.want {
			t.Errorf("DisplayScore(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func buildInput(stats *domain.AggregateStats) Input {
	return Input{
		RoomID:       "room-1",
		ScenarioType: "택배 사칭",
		ScenarioKey:  "delivery",
		Goal:         "주소 확보",
		Stats:        stats,
		Now:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildHighRiskReport(t *testing.T) {
	stats := &domain.AggregateStats{
		TotalScore: 1.2,
		TopEvents: []domain.TopEvent{
			{Event: "clicked_link", WeightSum: 0.5, Count: 1},
			{Event: "typed_personal_information", WeightSum: 0.6, Count: 1},
		},
		EventCounts: map[string]int{
			"clicked_link":               1,
			"typed_personal_information": 1,
		},
	}

	r := Build(buildInput(stats))

	if r.Grade.Level != domain.GradeHigh {
		t.Errorf("expected HIGH grade, got %s", r.Grade.Level)
	}
	if r.DisplayScore != 0 {
		t.Errorf("expected display score 0, got %d", r.DisplayScore)
	}
	if !strings.Contains(r.Summary, "위험") || !strings.Contains(r.Summary, "HIGH") {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
	if !strings.Contains(r.OneLiner, "공식 채널 역확인") {
		t.Errorf("unexpected one-liner: %s", r.OneLiner)
	}

	foundLink := false
	for _, s := range r.Improve {
		if strings.Contains(s, "링크 클릭") {
			foundLink = true
		}
	}
	if !foundLink {
		t.Errorf("expected link-risk improvement sentence, got %v", r.Improve)
	}
	if len(r.Tips) != 3 {
		t.Errorf("expected 3 delivery tips, got %v", r.Tips)
	}
}

func TestBuildProtectiveSessionReport(t *testing.T) {
	stats := &domain.AggregateStats{
		TotalScore: -0.7,
		TopEvents: []domain.TopEvent{
			{Event: "explicitly_ended_conversation", WeightSum: -0.4, Count: 1},
		},
		EventCounts: map[string]int{
			"explicitly_ended_conversation":           1,
			"refused_to_provide_personal_information": 1,
		},
	}

	r := Build(buildInput(stats))

	if r.Grade.Level != domain.GradeLow {
		t.Errorf("expected LOW grade, got %s", r.Grade.Level)
	}
	if r.DisplayScore != 100 {
		t.Errorf("expected display score 100, got %d", r.DisplayScore)
	}
	if len(r.DidWell) < 2 {
		t.Errorf("expected refusal and stop praise, got %v", r.DidWell)
	}
	// No risky behavior detected, so the fallback sentence applies.
	if len(r.Improve) != 1 || !strings.Contains(r.Improve[0], "치명적인 실수는 감지되지 않았습니다") {
		t.Errorf("expected fallback improve sentence, got %v", r.Improve)
	}
}

func TestBuildEmptySessionUsesFallbacks(t *testing.T) {
	stats := &domain.AggregateStats{
		TopEvents:   []domain.TopEvent{},
		EventCounts: map[string]int{},
	}

	r := Build(buildInput(stats))

	if len(r.DidWell) != 1 || !strings.Contains(r.DidWell[0], "뚜렷한 방어 행동은 감지되지 않았습니다") {
		t.Errorf("expected fallback did-well sentence, got %v", r.DidWell)
	}
	if r.DisplayScore != 100 {
		t.Errorf("expected display score 100, got %d", r.DisplayScore)
	}
	if r.Grade.Level != domain.GradeLow {
		t.Errorf("expected LOW, got %s", r.Grade.Level)
	}
}

func TestBuildUnknownScenarioGetsGenericTips(t *testing.T) {
	in := buildInput(&domain.AggregateStats{EventCounts: map[string]int{}})
	in.ScenarioKey = "unknown"

	r := Build(in)

	if len(r.Tips) != len(genericTips) || r.Tips[0] != genericTips[0] {
		t.Errorf("expected generic tips, got %v", r.Tips)
	}
}
