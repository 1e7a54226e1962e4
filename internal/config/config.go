// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Route maps a request path prefix to an upstream base URL.
type Route struct {
	Prefix string
	Target string
}

// Config holds application configuration loaded from the environment.
type Config struct {
	// GatewayAddr is the address the gateway HTTP server listens on (e.g. :8080).
	GatewayAddr string `mapstructure:"GATEWAY_ADDR"`
	// DirectoryAddr is the address the user directory HTTP server listens on (e.g. :8081).
	DirectoryAddr string `mapstructure:"DIRECTORY_ADDR"`
	// UserDirectoryURL is the base URL the gateway uses to reach the user directory (e.g. http://localhost:8081).
	UserDirectoryURL string `mapstructure:"USER_DIRECTORY_URL"`
	// UserDirectoryTimeout is the per-call timeout for directory requests (e.g. "3s").
	UserDirectoryTimeout string `mapstructure:"USER_DIRECTORY_TIMEOUT"`
	// DatabaseURL is the Postgres DSN for the user directory; unused by the gateway.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPublicKey is the PEM-encoded public key (RSA or ECDSA) or path to file; used to verify bearer tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTPrivateKey is the PEM-encoded private key or path to file; only cmd/devtoken signs with it.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTIssuer is the expected iss claim (e.g. the Keycloak realm URL); required when auth is enabled.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim; required when auth is enabled.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// CORSAllowedOrigins is a comma-separated list of allowed origins (e.g. "http://localhost:5173").
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// Routes is a comma-separated prefix=target list for the upstream router
	// (e.g. "/api/activities=http://localhost:8082,/api/recommendations=http://localhost:8083").
	Routes string `mapstructure:"ROUTES"`
	// BcryptCost is the bcrypt cost factor (4–31) for directory password hashing; default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Audit (optional). When Kafka brokers are set, the gateway emits audit events to Kafka.
	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events (default fitness-gateway-audit).
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the audit worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces and metrics (e.g. http://localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GATEWAY_ADDR", ":8080")
	v.SetDefault("DIRECTORY_ADDR", ":8081")
	v.SetDefault("USER_DIRECTORY_URL", "http://localhost:8081")
	v.SetDefault("USER_DIRECTORY_TIMEOUT", "3s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("ROUTES", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "fitness-gateway-audit")
	v.SetDefault("KAFKA_GROUP_ID", "fitness-audit-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GatewayAddr == "" {
		return nil, errors.New("config: GATEWAY_ADDR must be set")
	}
	if cfg.UserDirectoryURL == "" {
		return nil, errors.New("config: USER_DIRECTORY_URL must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if _, err := cfg.RouteTable(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DirectoryTimeout parses UserDirectoryTimeout as a time.Duration. Returns 3s if unset or invalid.
func (c *Config) DirectoryTimeout() time.Duration {
	d, err := time.ParseDuration(c.UserDirectoryTimeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// AllowedOrigins returns the CORS origin allowlist from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// RouteTable parses Routes into an ordered route list. Entries must be prefix=target
// with an absolute path prefix and a non-empty target. Returns an error on a malformed entry.
func (c *Config) RouteTable() ([]Route, error) {
	entries := splitList(c.Routes)
	routes := make([]Route, 0, len(entries))
	for _, e := range entries {
		prefix, target, ok := strings.Cut(e, "=")
		prefix = strings.TrimSpace(prefix)
		target = strings.TrimSpace(target)
		if !ok || prefix == "" || target == "" {
			return nil, fmt.Errorf("config: malformed route %q (want prefix=target)", e)
		}
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("config: route prefix %q must start with /", prefix)
		}
		routes = append(routes, Route{Prefix: prefix, Target: target})
	}
	return routes, nil
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if auditing is enabled (non-empty list) and to create the producer.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.AuditKafkaBrokers)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
