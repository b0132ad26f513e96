package domain

import (
	"context"
	"time"
)

// Repository is the append-only persistence contract for rooms and their
// message logs. The core never depends on storage internals, only on this
// query/append surface.
type Repository interface {
	// Room operations
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, roomID string) (*Room, error)
	EndRoom(ctx context.Context, roomID string, endedAt time.Time) error

	// Message log operations
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, roomID string) ([]*Message, error)
	ListMessagesBySender(ctx context.Context, roomID string, sender string) ([]*Message, error)
	CountMessagesSince(ctx context.Context, roomID string, sender string, since time.Time) (int64, error)

	// Session summaries (digest worker output)
	SaveSummary(ctx context.Context, summary *SessionSummary) error
	ListSummaries(ctx context.Context, limit int) ([]*SessionSummary, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `yaml:"driver" json:"driver"`

	// SQLite specific
	SQLitePath string `yaml:"sqlitePath" json:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `yaml:"postgresHost" json:"postgresHost"`
	PostgresPort     int    `yaml:"postgresPort" json:"postgresPort"`
	PostgresUser     string `yaml:"postgresUser" json:"postgresUser"`
	PostgresPassword string `yaml:"postgresPassword" json:"-"`
	PostgresDB       string `yaml:"postgresDb" json:"postgresDb"`
	PostgresSSLMode  string `yaml:"postgresSslMode" json:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" json:"connMaxLifetime"`
}
