// Package worker consumes session lifecycle events off the bus and keeps
// the session digest up to date.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-safety/decoy/internal/domain"
)

// Worker persists a summary row per ended session and escalates high-risk
// sessions to their own topic.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	logger *slog.Logger

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a digest worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the session-ended topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicSessionEnded, w.handleSessionEnded)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("digest worker started", "topic", domain.TopicSessionEnded)
	return nil
}

// handleSessionEnded persists the digest row for one ended session.
func (w *Worker) handleSessionEnded(ctx context.Context, msg *domain.BusMessage) error {
	start := time.Now()

	var event domain.SessionEndedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		w.logger.Error("failed to parse session-ended event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	summary := &domain.SessionSummary{
		ID:           uuid.New().String(),
		RoomID:       event.RoomID,
		ScenarioType: event.ScenarioType,
		Level:        event.Level,
		DisplayScore: event.DisplayScore,
		TotalScore:   event.TotalScore,
		TopEvents:    event.TopEvents,
		CreatedAt:    time.Now().UTC(),
	}
	if w.repo != nil {
		if err := w.repo.SaveSummary(ctx, summary); err != nil {
			w.logger.Error("failed to save session summary",
				"room_id", event.RoomID,
				"error", err,
			)
			return err
		}
	}

	// High-risk sessions get their own topic for downstream consumers.
	if event.Level == domain.GradeHigh {
		if err := w.bus.Publish(ctx, domain.TopicHighRisk, msg.Payload); err != nil {
			w.logger.Error("failed to publish high-risk event",
				"room_id", event.RoomID,
				"error", err,
			)
		}
	}

	w.logger.Info("session digested",
		"room_id", event.RoomID,
		"level", event.Level,
		"score", event.DisplayScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	w.logger.Info("digest worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
