package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the access service configuration.
type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	TokenTTL         time.Duration `env:"TOKEN_TTL,          default=24h"`
	RememberTTL      time.Duration `env:"REMEMBER_TTL,       default=720h"`
	RoleCacheTTL     time.Duration `env:"ROLE_CACHE_TTL,     default=30s"`
	HeartbeatWorkers int           `env:"HEARTBEAT_WORKERS,  default=4"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,   default=10s"`

	Mongo MongoConfig
	Redis RedisConfig
	Jobs  JobsConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=marketplace_access"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// JobsConfig holds the cleanup schedules, in robfig/cron syntax.
type JobsConfig struct {
	RememberTokenPurge string        `env:"JOB_REMEMBER_TOKEN_PURGE, default=@every 10m"`
	SessionPurge       string        `env:"JOB_SESSION_PURGE,        default=@hourly"`
	SessionMaxIdle     time.Duration `env:"SESSION_MAX_IDLE,         default=24h"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AgentConfig is the headless session agent configuration.
type AgentConfig struct {
	BackendURL string `env:"BACKEND_URL, default=http://localhost:8080"`
	Email      string `env:"AGENT_EMAIL"`
	Password   string `env:"AGENT_PASSWORD"`
	Remember   bool   `env:"AGENT_REMEMBER, default=true"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	Env        string `env:"ENV,         default=development"`

	// StoreBackend selects where the remember token and fingerprint live:
	// sqlite, redis or memory.
	StoreBackend string `env:"STORE_BACKEND, default=sqlite"`
	StorePath    string `env:"STORE_PATH,    default=session-agent.db"`
	StorePrefix  string `env:"STORE_PREFIX,  default=session:"`

	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT,       default=30m"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,     default=1m"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL, default=5m"`
	RoleCacheTTL      time.Duration `env:"ROLE_CACHE_TTL,     default=30s"`

	Redis RedisConfig
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := LoadFrom(context.Background(), envconfig.OsLookuper(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// LoadAgent reads the session agent configuration from the environment.
func LoadAgent() *AgentConfig {
	var cfg AgentConfig
	if err := LoadFrom(context.Background(), envconfig.OsLookuper(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load agent configuration: %v", err))
	}
	return &cfg
}

// LoadFrom processes target against l. Load and LoadAgent pass the
// process environment.
func LoadFrom(ctx context.Context, l envconfig.Lookuper, target any) error {
	return envconfig.ProcessWith(ctx, &envconfig.Config{Target: target, Lookuper: l})
}
