package domain

// Config holds the complete Decoy configuration.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Tier determines default component backends
	Tier Tier `yaml:"tier" json:"tier"`

	// Component configurations
	Repository RepositoryConfig `yaml:"repository" json:"repository"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	EventBus   EventBusConfig   `yaml:"eventBus" json:"eventBus"`
	Generator  GeneratorConfig  `yaml:"generator" json:"generator"`

	// Rules holds the scoring rule table source.
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// Throttle limits user messages per room.
	Throttle ThrottleConfig `yaml:"throttle" json:"throttle"`

	// Observability
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"readTimeout" json:"readTimeout"`   // seconds
	WriteTimeout int    `yaml:"writeTimeout" json:"writeTimeout"` // seconds
}

// GeneratorConfig holds settings for the antagonist reply generator.
type GeneratorConfig struct {
	// Provider is "openai" or "mock".
	Provider string `yaml:"provider" json:"provider"`

	APIKey  string `yaml:"apiKey" json:"-"`
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`
	Model   string `yaml:"model" json:"model"`

	// MaxTokens caps the reply length; TimeoutSecs bounds the call.
	MaxTokens   int `yaml:"maxTokens" json:"maxTokens"`
	TimeoutSecs int `yaml:"timeoutSecs" json:"timeoutSecs"`

	// HistoryWindow is how many recent user/scammer turns are replayed.
	HistoryWindow int `yaml:"historyWindow" json:"historyWindow"`
}

// RulesConfig holds the rule table source.
type RulesConfig struct {
	// Path is an optional rule table JSON file. Empty means the embedded
	// default table.
	Path string `yaml:"path" json:"path"`

	// DedupeEvents collapses an event that appears in both the scenario and
	// common rule lists to a single firing per message. Off by default: the
	// layered double-count is the documented scoring behavior.
	DedupeEvents bool `yaml:"dedupeEvents" json:"dedupeEvents"`
}

// ThrottleConfig limits message rate per room.
type ThrottleConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	MaxMessages int  `yaml:"maxMessages" json:"maxMessages"`
	WindowSecs  int  `yaml:"windowSecs" json:"windowSecs"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"serviceName" json:"serviceName"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity runs on SQLite + in-process cache + channel bus.
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL + Redis + NATS.
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for the Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		Tier: TierCommunity,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./decoy.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     300, // 5 minutes
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Generator: GeneratorConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			MaxTokens:     400,
			TimeoutSecs:   30,
			HistoryWindow: 10,
		},
		Throttle: ThrottleConfig{
			Enabled:     true,
			MaxMessages: 30,
			WindowSecs:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "decoy",
		},
	}
}

// ProConfig returns a configuration for the Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "decoy",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
