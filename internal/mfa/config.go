package mfa

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Authenticator configuration keys.
const (
	KeyLength     = "length"
	KeyTTL        = "ttl"
	KeySenderID   = "senderId"
	KeyURI        = "uri"
	KeyAPIKey     = "apiKey"
	KeySimulation = "simulation"
)

// PropertyType is the value type of a configuration property.
type PropertyType string

const (
	StringProperty  PropertyType = "String"
	BooleanProperty PropertyType = "boolean"
)

// Property describes one recognized configuration key for admin UIs.
type Property struct {
	Name         string       `json:"name"`
	Label        string       `json:"label"`
	HelpText     string       `json:"helpText"`
	Type         PropertyType `json:"type"`
	DefaultValue string       `json:"defaultValue"`
}

// Schema lists the configuration properties of the SMS authenticator in display order.
var Schema = []Property{
	{KeyLength, "Code length", "The number of digits of the generated code.", StringProperty, "6"},
	{KeyTTL, "Time-to-live", "The time to live in seconds for the code to be valid.", StringProperty, "300"},
	{KeySenderID, "SenderId", "The sender ID is displayed as the message sender on the receiving device. Should be up to 11 characters.", StringProperty, "Keycloak"},
	{KeyURI, "URI", "The SMS gateway URI.", StringProperty, ""},
	{KeyAPIKey, "API Key", "The SMS gateway API Key.", StringProperty, ""},
	{KeySimulation, "Simulation mode", "In simulation mode, the SMS won't be sent, but printed to the server logs", BooleanProperty, "true"},
}

// Defaults returns the schema defaults as a key/value map.
func Defaults() map[string]string {
	m := make(map[string]string, len(Schema))
	for _, p := range Schema {
		m[p.Name] = p.DefaultValue
	}
	return m
}

// DeliveryConfig is the parsed, immutable configuration of one authenticator instance.
// It is safe to share across sessions.
type DeliveryConfig struct {
	Length         int
	TTL            time.Duration
	SenderID       string
	GatewayURI     string
	APIKey         string
	SimulationMode bool
}

// TTLSeconds returns the code lifetime in whole seconds.
func (c DeliveryConfig) TTLSeconds() int {
	return int(c.TTL / time.Second)
}

// ParseDeliveryConfig builds a DeliveryConfig from the string-typed configuration map.
// length and ttl are required positive integers; senderId falls back to its default and
// simulation defaults to true. A non-simulated config must name a gateway URI.
func ParseDeliveryConfig(m map[string]string) (DeliveryConfig, error) {
	length, err := positiveInt(m, KeyLength)
	if err != nil {
		return DeliveryConfig{}, err
	}
	ttl, err := positiveInt(m, KeyTTL)
	if err != nil {
		return DeliveryConfig{}, err
	}
	cfg := DeliveryConfig{
		Length:         length,
		TTL:            time.Duration(ttl) * time.Second,
		SenderID:       strings.TrimSpace(m[KeySenderID]),
		GatewayURI:     strings.TrimSpace(m[KeyURI]),
		APIKey:         m[KeyAPIKey],
		SimulationMode: true,
	}
	if cfg.SenderID == "" {
		cfg.SenderID = "Keycloak"
	}
	if raw := strings.TrimSpace(m[KeySimulation]); raw != "" {
		sim, err := strconv.ParseBool(raw)
		if err != nil {
			return DeliveryConfig{}, &ConfigError{Key: KeySimulation, Err: err}
		}
		cfg.SimulationMode = sim
	}
	if !cfg.SimulationMode && cfg.GatewayURI == "" {
		return DeliveryConfig{}, &ConfigError{Key: KeyURI, Err: errors.New("required when simulation is disabled")}
	}
	return cfg, nil
}

func positiveInt(m map[string]string, key string) (int, error) {
	raw, ok := m[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, &ConfigError{Key: key, Err: errors.New("missing")}
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ConfigError{Key: key, Err: err}
	}
	if n <= 0 {
		return 0, &ConfigError{Key: key, Err: errors.New("must be positive")}
	}
	return n, nil
}
