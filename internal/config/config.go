// Package config loads and validates service config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sms-otp-authenticator/internal/mfa"
)

// Config holds service configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// DatabaseURL is the Postgres DSN for user attributes; empty selects the in-memory store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL (redis://...) selects the Redis session note store; empty keeps notes in memory.
	RedisURL string `mapstructure:"REDIS_URL"`
	// SessionNoteTTL is how long session notes live after their last write (e.g. "30m").
	SessionNoteTTL string `mapstructure:"SESSION_NOTE_TTL"`

	// OTPLength is the number of digits of a generated code.
	OTPLength int `mapstructure:"OTP_LENGTH"`
	// OTPTTL is the code lifetime in seconds.
	OTPTTL int `mapstructure:"OTP_TTL"`
	// SMSSenderID is shown as the message sender; should be up to 11 characters.
	SMSSenderID string `mapstructure:"SMS_SENDER_ID"`
	// SMSGatewayURI is the in-house SMS gateway endpoint. Required unless SMSSimulation is true.
	SMSGatewayURI string `mapstructure:"SMS_GATEWAY_URI"`
	// SMSAPIKey is sent as X-Api-Key to the gateway.
	SMSAPIKey string `mapstructure:"SMS_API_KEY"`
	// SMSSimulation when true logs messages instead of sending them.
	SMSSimulation bool `mapstructure:"SMS_SIMULATION"`
	// SMSHTTPTimeout bounds a gateway call (e.g. "15s").
	SMSHTTPTimeout string `mapstructure:"SMS_HTTP_TIMEOUT"`
	// DevOTPEndpoint exposes GET /dev/otp with simulated messages. Must not be true when Env is production.
	DevOTPEndpoint bool `mapstructure:"DEV_OTP_ENDPOINT"`

	// OTLPEndpoint is the OTLP collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// KafkaBrokers is a comma-separated list of Kafka brokers for authentication events.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for authentication events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// Worker-only: KafkaGroupID is the consumer group of the Loki forwarder.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: LokiURL is where the worker pushes events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_NOTE_TTL", "30m")
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_TTL", 300)
	v.SetDefault("SMS_SENDER_ID", "Keycloak")
	v.SetDefault("SMS_GATEWAY_URI", "")
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SIMULATION", true)
	v.SetDefault("SMS_HTTP_TIMEOUT", "15s")
	v.SetDefault("DEV_OTP_ENDPOINT", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "sms-otp-events")
	v.SetDefault("KAFKA_GROUP_ID", "sms-otp-loki-forwarder")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DevOTPEndpoint && cfg.Env == "production" {
		return nil, errors.New("config: DEV_OTP_ENDPOINT must not be true when APP_ENV=production")
	}
	if _, err := mfa.ParseDeliveryConfig(cfg.AuthenticatorConfig()); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AuthenticatorConfig returns the authenticator's key/value configuration, as parsed by
// mfa.ParseDeliveryConfig.
func (c *Config) AuthenticatorConfig() map[string]string {
	return map[string]string{
		mfa.KeyLength:     strconv.Itoa(c.OTPLength),
		mfa.KeyTTL:        strconv.Itoa(c.OTPTTL),
		mfa.KeySenderID:   c.SMSSenderID,
		mfa.KeyURI:        c.SMSGatewayURI,
		mfa.KeyAPIKey:     c.SMSAPIKey,
		mfa.KeySimulation: strconv.FormatBool(c.SMSSimulation),
	}
}

// NoteTTL parses SessionNoteTTL. Returns 30m if unset or invalid.
func (c *Config) NoteTTL() time.Duration {
	return parseDuration(c.SessionNoteTTL, 30*time.Minute)
}

// GatewayTimeout parses SMSHTTPTimeout. Returns 15s if unset or invalid.
func (c *Config) GatewayTimeout() time.Duration {
	return parseDuration(c.SMSHTTPTimeout, 15*time.Second)
}

// DevOTPEnabled reports whether the dev-only OTP endpoint may be served.
func (c *Config) DevOTPEnabled() bool {
	return c.DevOTPEndpoint && c.Env != "production"
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
