package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	GRPC      GRPCConfig      `yaml:"grpc" envPrefix:"GRPC_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DB_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	Booking   BookingConfig   `yaml:"booking" envPrefix:"BOOKING_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"OTEL_"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"ADDRESS"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`
	// MaxConns caps the single connection pool shared by every repository.
	MaxConns int32 `yaml:"max_conns" env:"MAX_CONNS"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	BookingEventsTopic string   `yaml:"booking_events_topic" env:"BOOKING_EVENTS_TOPIC"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" env:"GROUP_ID"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type BookingConfig struct {
	HoldTTLSeconds      int `yaml:"hold_ttl_seconds" env:"HOLD_TTL_SECONDS"`
	SeatMapCacheSeconds int `yaml:"seat_map_cache_seconds" env:"SEAT_MAP_CACHE_SECONDS"`
	ACSeats             int `yaml:"ac_seats" env:"AC_SEATS"`
	SLSeats             int `yaml:"sl_seats" env:"SL_SEATS"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLSeconds) * time.Second
}

func (b BookingConfig) SeatMapTTL() time.Duration {
	return time.Duration(b.SeatMapCacheSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer        string `yaml:"issuer" env:"ISSUER"`
	TokenTTLHours int    `yaml:"token_ttl_hours" env:"TOKEN_TTL_HOURS"`
}

func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	Insecure    bool   `yaml:"insecure" env:"INSECURE"`
}

// Default returns the settings used when a key is absent from both the file
// and the environment.
func Default() Config {
	return Config{
		HTTP:     HTTPConfig{Address: ":8080"},
		GRPC:     GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", MaxConns: 20},
		Storage:  StorageConfig{Driver: StorageDriverPostgres},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking-events",
			NotificationsTopic: "notifications",
			GroupID:            "railbooking-worker",
		},
		Booking: BookingConfig{
			HoldTTLSeconds:      30,
			SeatMapCacheSeconds: 10,
			ACSeats:             15,
			SLSeats:             15,
		},
		Auth:      AuthConfig{Issuer: "railbooking", TokenTTLHours: 24},
		Log:       LogConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{ServiceName: "railbooking"},
	}
}

// LoadConfig reads the YAML file at path on top of Default and then applies
// RAIL_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RAIL_"}); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Booking.ACSeats < 0 || c.Booking.SLSeats < 0 {
		return fmt.Errorf("seat counts must not be negative")
	}
	if c.Booking.ACSeats+c.Booking.SLSeats == 0 {
		return fmt.Errorf("a schedule needs at least one seat")
	}
	return nil
}
