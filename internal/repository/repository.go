// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-safety/decoy/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range Schemas(r.driver) {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// CreateRoom stores a new chat room.
func (r *SQLRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		return fmt.Errorf("%w: room ID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO chat_rooms (id, scenario_type, scenario_description, phishing_goal, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		room.ID, room.ScenarioType, room.ScenarioDescription, room.PhishingGoal,
		room.CreatedAt,
	)
	return err
}

// GetRoom retrieves a room by ID.
func (r *SQLRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, fmt.Errorf("%w: room ID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, scenario_type, scenario_description, phishing_goal, created_at, ended_at
		FROM chat_rooms
		WHERE id = ?
	`

	var room domain.Room
	var endedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, r.rebind(query), roomID).Scan(
		&room.ID, &room.ScenarioType, &room.ScenarioDescription, &room.PhishingGoal,
		&room.CreatedAt, &endedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		t := endedAt.Time
		room.EndedAt = &t
	}
	return &room, nil
}

// EndRoom marks a room as ended. Ending an already ended room keeps the
// original timestamp; an unknown room is ErrNotFound.
func (r *SQLRepository) EndRoom(ctx context.Context, roomID string, endedAt time.Time) error {
	if roomID == "" {
		return fmt.Errorf("%w: room ID is required", ErrInvalidInput)
	}

	query := `
		UPDATE chat_rooms
		SET ended_at = ?
		WHERE id = ? AND ended_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), endedAt, roomID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either already ended or missing.
		if _, err := r.GetRoom(ctx, roomID); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage appends to the room's message log and fills in the assigned
// monotonic ID.
func (r *SQLRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	if msg.RoomID == "" {
		return fmt.Errorf("%w: room ID is required", ErrInvalidInput)
	}
	if msg.Sender == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO chat_messages (chat_room_id, sender, content, created_at)
		VALUES (?, ?, ?, ?)
	`

	if r.driver == "postgres" {
		return r.db.QueryRowContext(ctx, r.rebind(query+" RETURNING id"),
			msg.RoomID, msg.Sender, msg.Content, msg.CreatedAt,
		).Scan(&msg.ID)
	}

	result, err := r.db.ExecContext(ctx, r.rebind(query),
		msg.RoomID, msg.Sender, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return err
	}
	msg.ID, err = result.LastInsertId()
	return err
}

// ListMessages returns the room's full message log in append order.
func (r *SQLRepository) ListMessages(ctx context.Context, roomID string) ([]*domain.Message, error) {
	query := `
		SELECT id, chat_room_id, sender, content, created_at
		FROM chat_messages
		WHERE chat_room_id = ?
		ORDER BY id
	`
	return r.queryMessages(ctx, r.rebind(query), roomID)
}

// ListMessagesBySender returns the room's messages from one sender in
// append order.
func (r *SQLRepository) ListMessagesBySender(ctx context.Context, roomID string, sender string) ([]*domain.Message, error) {
	query := `
		SELECT id, chat_room_id, sender, content, created_at
		FROM chat_messages
		WHERE chat_room_id = ? AND sender = ?
		ORDER BY id
	`
	return r.queryMessages(ctx, r.rebind(query), roomID, sender)
}

func (r *SQLRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// CountMessagesSince counts a sender's messages in a room since a point in
// time. Backs the message throttle when the cache cannot.
func (r *SQLRepository) CountMessagesSince(ctx context.Context, roomID string, sender string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_messages
		WHERE chat_room_id = ? AND sender = ? AND created_at >= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), roomID, sender, since).Scan(&count)
	return count, err
}

// SaveSummary stores a digest worker session summary.
func (r *SQLRepository) SaveSummary(ctx context.Context, summary *domain.SessionSummary) error {
	if summary.ID == "" {
		return fmt.Errorf("%w: summary ID is required", ErrInvalidInput)
	}

	topEvents, _ := json.Marshal(summary.TopEvents)

	query := `
		INSERT INTO session_summaries (
			id, chat_room_id, scenario_type, level, display_score, total_score, top_events, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		summary.ID, summary.RoomID, summary.ScenarioType, summary.Level,
		summary.DisplayScore, summary.TotalScore, string(topEvents),
		summary.CreatedAt,
	)
	return err
}

// ListSummaries returns the most recent session summaries.
func (r *SQLRepository) ListSummaries(ctx context.Context, limit int) ([]*domain.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, chat_room_id, scenario_type, level, display_score, total_score, top_events, created_at
		FROM session_summaries
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.SessionSummary
	for rows.Next() {
		var s domain.SessionSummary
		var topEvents string
		if err := rows.Scan(
			&s.ID, &s.RoomID, &s.ScenarioType, &s.Level,
			&s.DisplayScore, &s.TotalScore, &topEvents, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if topEvents != "" {
			json.Unmarshal([]byte(topEvents), &s.TopEvents)
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
