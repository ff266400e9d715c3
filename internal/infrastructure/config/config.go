package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	// Timezone is the IANA zone that defines calendar days for tracking
	// ids and rollups.
	Timezone string `env:"TIMEZONE,   default=UTC"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Allocation AllocationConfig
	Rollup     RollupConfig
	Kafka      KafkaConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=courier_booking"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AllocationConfig struct {
	LockTTL     time.Duration `env:"ALLOCATION_LOCK_TTL,     default=5s"`
	MaxAttempts int           `env:"ALLOCATION_MAX_ATTEMPTS, default=10"`
}

type RollupConfig struct {
	Workers        int    `env:"ROLLUP_WORKERS,         default=4"`
	RepairSchedule string `env:"ROLLUP_REPAIR_SCHEDULE, default=15 0 * * *"`
}

type KafkaConfig struct {
	// Brokers is a comma separated list; empty disables publishing.
	Brokers      string `env:"KAFKA_BROKERS"`
	BookingTopic string `env:"KAFKA_BOOKING_TOPIC, default=shipments.booked"`
}

// BrokerList splits Brokers into addresses.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.Allocation.MaxAttempts < 1 {
		return nil, fmt.Errorf("config: ALLOCATION_MAX_ATTEMPTS must be at least 1")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
