package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/opensource-safety/decoy/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "decoy-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("CreateAndGetRoom", func(t *testing.T) {
		room := &domain.Room{
			ID:                  "room-001",
			ScenarioType:        "택배 사칭",
			ScenarioDescription: "배송 주소 확인을 빙자한 접근",
			PhishingGoal:        "이름, 주소 확보",
			CreatedAt:           time.Now().UTC(),
		}

		if err := repo.CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		retrieved, err := repo.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if retrieved.ScenarioType != room.ScenarioType {
			t.Errorf("expected scenario %s, got %s", room.ScenarioType, retrieved.ScenarioType)
		}
		if retrieved.EndedAt != nil {
			t.Errorf("expected open room, got ended_at %v", retrieved.EndedAt)
		}
	})

	t.Run("AppendMessagesKeepOrder", func(t *testing.T) {
		msgs := []*domain.Message{
			{RoomID: "room-001", Sender: domain.SenderScammer, Content: "택배 주소 확인 부탁드립니다", CreatedAt: time.Now().UTC()},
			{RoomID: "room-001", Sender: domain.SenderUser, Content: "누구세요?", CreatedAt: time.Now().UTC()},
			{RoomID: "room-001", Sender: domain.SenderSystem, Content: `{"evaluation":{"scoreDelta":0,"events":[]}}`, CreatedAt: time.Now().UTC()},
		}
		for _, m := range msgs {
			if err := repo.AppendMessage(ctx, m); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}
		}

		// IDs are assigned monotonically.
		if !(msgs[0].ID < msgs[1].ID && msgs[1].ID < msgs[2].ID) {
			t.Errorf("expected monotonic IDs, got %d %d %d", msgs[0].ID, msgs[1].ID, msgs[2].ID)
		}

		listed, err := repo.ListMessages(ctx, "room-001")
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(listed) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(listed))
		}
		if listed[0].Content != msgs[0].Content || listed[2].Sender != domain.SenderSystem {
			t.Errorf("messages out of order: %+v", listed)
		}
	})

	t.Run("ListMessagesBySender", func(t *testing.T) {
		system, err := repo.ListMessagesBySender(ctx, "room-001", domain.SenderSystem)
		if err != nil {
			t.Fatalf("ListMessagesBySender failed: %v", err)
		}
		if len(system) != 1 {
			t.Errorf("expected 1 system message, got %d", len(system))
		}
	})

	t.Run("CountMessagesSince", func(t *testing.T) {
		count, err := repo.CountMessagesSince(ctx, "room-001", domain.SenderUser, time.Now().Add(-time.Hour).UTC())
		if err != nil {
			t.Fatalf("CountMessagesSince failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 user message, got %d", count)
		}

		count, err = repo.CountMessagesSince(ctx, "room-001", domain.SenderUser, time.Now().Add(time.Hour).UTC())
		if err != nil {
			t.Fatalf("CountMessagesSince failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 messages in the future window, got %d", count)
		}
	})

	t.Run("EndRoom", func(t *testing.T) {
		endedAt := time.Now().UTC()
		if err := repo.EndRoom(ctx, "room-001", endedAt); err != nil {
			t.Fatalf("EndRoom failed: %v", err)
		}

		room, err := repo.GetRoom(ctx, "room-001")
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if room.EndedAt == nil {
			t.Fatal("expected ended_at to be set")
		}
		first := *room.EndedAt

		// Ending again keeps the original timestamp.
		if err := repo.EndRoom(ctx, "room-001", time.Now().Add(time.Hour).UTC()); err != nil {
			t.Fatalf("repeated EndRoom failed: %v", err)
		}
		room, _ = repo.GetRoom(ctx, "room-001")
		if !room.EndedAt.Equal(first) {
			t.Errorf("expected ended_at %v to survive, got %v", first, room.EndedAt)
		}
	})

	t.Run("EndUnknownRoom", func(t *testing.T) {
		if err := repo.EndRoom(ctx, "nonexistent", time.Now().UTC()); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveAndListSummaries", func(t *testing.T) {
		summary := &domain.SessionSummary{
			ID:           "sum-001",
			RoomID:       "room-001",
			ScenarioType: "택배 사칭",
			Level:        domain.GradeHigh,
			DisplayScore: 0,
			TotalScore:   1.4,
			TopEvents: []domain.TopEvent{
				{Event: "typed_personal_information", WeightSum: 0.6, Count: 1},
			},
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.SaveSummary(ctx, summary); err != nil {
			t.Fatalf("SaveSummary failed: %v", err)
		}

		summaries, err := repo.ListSummaries(ctx, 10)
		if err != nil {
			t.Fatalf("ListSummaries failed: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("expected 1 summary, got %d", len(summaries))
		}
		if summaries[0].TotalScore != 1.4 {
			t.Errorf("expected total 1.4, got %v", summaries[0].TotalScore)
		}
		if len(summaries[0].TopEvents) != 1 || summaries[0].TopEvents[0].Event != "typed_personal_information" {
			t.Errorf("unexpected top events: %+v", summaries[0].TopEvents)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetRoom(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RequiresIDs", func(t *testing.T) {
		if err := repo.CreateRoom(ctx, &domain.Room{}); err == nil {
			t.Error("expected error for empty room ID")
		}
		if err := repo.AppendMessage(ctx, &domain.Message{RoomID: "room-001"}); err == nil {
			t.Error("expected error for empty sender")
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "mysql"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
