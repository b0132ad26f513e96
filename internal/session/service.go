// Package session orchestrates simulation rooms: scammer turns, per-message
// scoring, and end-of-session reports.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-safety/decoy/internal/domain"
	"github.com/opensource-safety/decoy/internal/llm"
	"github.com/opensource-safety/decoy/internal/report"
	"github.com/opensource-safety/decoy/internal/repository"
	"github.com/opensource-safety/decoy/internal/rules"
	"github.com/opensource-safety/decoy/internal/throttle"
)

var (
	// ErrRoomNotFound is returned for operations on unknown rooms.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnknownScenario is returned when a scenario key has no persona or
	// no rule group.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrThrottled is returned when a room exceeded its message budget.
	ErrThrottled = errors.New("message rate limit exceeded")
)

const scenarioCacheTTL = 10 * time.Minute

// Service runs the simulation sessions.
type Service struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *rules.Engine
	provider llm.Provider
	limiter  *throttle.Limiter
	logger   *slog.Logger

	historyWindow int
	maxTokens     int
	timeout       time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Deps bundles the service dependencies.
type Deps struct {
	Repo     domain.Repository
	Cache    domain.Cache
	Bus      domain.EventBus
	Engine   *rules.Engine
	Provider llm.Provider
	Limiter  *throttle.Limiter
	Logger   *slog.Logger

	Generator domain.GeneratorConfig
}

// New creates a session service.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyWindow := deps.Generator.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = 10
	}
	timeout := time.Duration(deps.Generator.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		repo:          deps.Repo,
		cache:         deps.Cache,
		bus:           deps.Bus,
		engine:        deps.Engine,
		provider:      deps.Provider,
		limiter:       deps.Limiter,
		logger:        logger,
		historyWindow: historyWindow,
		maxTokens:     deps.Generator.MaxTokens,
		timeout:       timeout,
		locks:         make(map[string]*sync.Mutex),
	}
}

// roomLock serializes the message pipeline per room so the append-only log
// keeps a consistent turn order.
func (s *Service) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[roomID] = lock
	}
	return lock
}

// CreateRoom starts a session for a scenario and returns the room together
// with the scammer's opening message.
func (s *Service) CreateRoom(ctx context.Context, scenarioKey string) (*domain.Room, string, error) {
	scenario, ok := domain.Scenarios[scenarioKey]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownScenario, scenarioKey)
	}

	room := &domain.Room{
		ID:                  uuid.New().String(),
		ScenarioType:        scenario.Type,
		ScenarioDescription: scenario.Description,
		PhishingGoal:        scenario.Goal,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, "", fmt.Errorf("failed to create room: %w", err)
	}
	if err := s.cache.SetScenario(ctx, room.ID, &scenario, scenarioCacheTTL); err != nil {
		s.logger.Warn("failed to cache scenario", "room_id", room.ID, "error", err)
	}

	reply, err := s.generate(ctx, llm.Request{
		System:      openingPrompt(&scenario),
		JSON:        true,
		MaxTokens:   s.maxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.AppendMessage(ctx, &domain.Message{
		RoomID:    room.ID,
		Sender:    domain.SenderScammer,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, "", fmt.Errorf("failed to persist opening message: %w", err)
	}

	s.logger.Info("room created",
		"room_id", room.ID,
		"scenario", scenarioKey,
		"model", s.provider.ModelID(),
	)
	return room, reply, nil
}

// ChatResult is one completed conversation turn.
type ChatResult struct {
	Reply      string             `json:"reply"`
	Evaluation *domain.Evaluation `json:"evaluation"`
}

// Chat scores the user message, persists the turn, and produces the scammer
// reply. The evaluation record is only stored once the reply succeeded, so
// a failed generation leaves no half-scored turn behind.
func (s *Service) Chat(ctx context.Context, roomID, message string) (*ChatResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	scenario, err := s.scenarioFor(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, roomID)
		if err != nil {
			s.logger.Warn("throttle check degraded", "room_id", roomID, "error", err)
		}
		if !ok {
			return nil, ErrThrottled
		}
	}

	eval, err := s.engine.Evaluate(message, scenario.Key)
	if err != nil {
		if errors.Is(err, rules.ErrUnknownScenario) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, scenario.Key)
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.AppendMessage(ctx, &domain.Message{
		RoomID:    roomID,
		Sender:    domain.SenderUser,
		Content:   message,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	history, err := s.history(ctx, roomID)
	if err != nil {
		return nil, err
	}

	reply, err := s.generate(ctx, llm.Request{
		System:      chatPrompt(scenario),
		Messages:    history,
		JSON:        true,
		MaxTokens:   s.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendMessage(ctx, &domain.Message{
		RoomID:    roomID,
		Sender:    domain.SenderScammer,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist reply: %w", err)
	}

	record, _ := json.Marshal(domain.EvaluationRecord{Evaluation: eval})
	if err := s.repo.AppendMessage(ctx, &domain.Message{
		RoomID:    roomID,
		Sender:    domain.SenderSystem,
		Content:   string(record),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist evaluation: %w", err)
	}

	s.publish(ctx, domain.TopicEvaluation, domain.EvaluationEvent{
		RoomID:     roomID,
		Scenario:   scenario.Key,
		Evaluation: eval,
	})

	return &ChatResult{Reply: reply, Evaluation: eval}, nil
}

// Messages returns the room's full transcript.
func (s *Service) Messages(ctx context.Context, roomID string) ([]*domain.Message, error) {
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return s.repo.ListMessages(ctx, roomID)
}

// End finalizes a session: folds all stored evaluations, builds the report,
// persists the final record, and announces the ended session. Ending an
// already ended room rebuilds the same report without new side effects.
func (s *Service) End(ctx context.Context, roomID string) (*domain.Report, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	scenarioKey, ok := domain.ScenarioKeyByType[room.ScenarioType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, room.ScenarioType)
	}

	evals, err := s.storedEvaluations(ctx, roomID)
	if err != nil {
		return nil, err
	}

	stats := report.Aggregate(evals)
	now := time.Now().UTC()
	rep := report.Build(report.Input{
		RoomID:       roomID,
		ScenarioType: room.ScenarioType,
		ScenarioKey:  scenarioKey,
		Goal:         room.PhishingGoal,
		Stats:        stats,
		Now:          now,
	})

	if room.EndedAt != nil {
		return rep, nil
	}

	record, _ := json.Marshal(domain.FinalRecord{
		FinalEvaluation: &domain.FinalEvaluation{
			Scenario:     room.ScenarioType,
			DisplayScore: rep.DisplayScore,
			Grade:        rep.Grade,
			TopEvents:    rep.TopEvents,
			GeneratedAt:  now,
		},
	})
	if err := s.repo.AppendMessage(ctx, &domain.Message{
		RoomID:    roomID,
		Sender:    domain.SenderSystem,
		Content:   string(record),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist final record: %w", err)
	}
	if err := s.repo.EndRoom(ctx, roomID, now); err != nil {
		return nil, fmt.Errorf("failed to end room: %w", err)
	}

	s.publish(ctx, domain.TopicSessionEnded, domain.SessionEndedEvent{
		RoomID:       roomID,
		ScenarioType: room.ScenarioType,
		Level:        rep.Grade.Level,
		DisplayScore: rep.DisplayScore,
		TotalScore:   stats.TotalScore,
		TopEvents:    stats.TopEvents,
	})

	s.logger.Info("session ended",
		"room_id", roomID,
		"level", rep.Grade.Level,
		"score", rep.DisplayScore,
		"evaluations", len(evals),
	)
	return rep, nil
}

// scenarioFor resolves the room's scenario, cache first.
func (s *Service) scenarioFor(ctx context.Context, roomID string) (*domain.Scenario, error) {
	if cached, err := s.cache.GetScenario(ctx, roomID); err == nil && cached != nil {
		return cached, nil
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	key, ok := domain.ScenarioKeyByType[room.ScenarioType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, room.ScenarioType)
	}
	scenario := domain.Scenarios[key]
	scenario.Description = room.ScenarioDescription
	scenario.Goal = room.PhishingGoal

	if err := s.cache.SetScenario(ctx, roomID, &scenario, scenarioCacheTTL); err != nil {
		s.logger.Warn("failed to cache scenario", "room_id", roomID, "error", err)
	}
	return &scenario, nil
}

// history replays the most recent user/scammer turns for the generator.
func (s *Service) history(ctx context.Context, roomID string) ([]llm.Message, error) {
	all, err := s.repo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var turns []llm.Message
	for _, m := range all {
		switch m.Sender {
		case domain.SenderUser:
			turns = append(turns, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case domain.SenderScammer:
			turns = append(turns, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	if len(turns) > s.historyWindow {
		turns = turns[len(turns)-s.historyWindow:]
	}
	return turns, nil
}

// storedEvaluations reads back the per-message evaluation records. Records
// that are not evaluation envelopes (the final record, stray system text)
// are skipped, not fatal.
func (s *Service) storedEvaluations(ctx context.Context, roomID string) ([]*domain.Evaluation, error) {
	msgs, err := s.repo.ListMessagesBySender(ctx, roomID, domain.SenderSystem)
	if err != nil {
		return nil, err
	}

	var evals []*domain.Evaluation
	for _, m := range msgs {
		var record domain.EvaluationRecord
		if err := json.Unmarshal([]byte(m.Content), &record); err != nil || record.Evaluation == nil {
			continue
		}
		evals = append(evals, record.Evaluation)
	}
	return evals, nil
}

func (s *Service) generate(ctx context.Context, req llm.Request) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(genCtx, req)
	if err != nil {
		return "", err
	}
	reply, err := parseReply(resp.Content)
	if err != nil {
		return "", &llm.ErrProviderUnavailable{Err: err}
	}
	return reply, nil
}

// publish is best effort; a bus outage must not fail the user turn.
func (s *Service) publish(ctx context.Context, topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, data); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
