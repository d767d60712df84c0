package wsprgo

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// configSchemaConstraint bounds the config schema_version field this
// binary understands. Bump the upper end when a breaking config
// change ships; add a migration path rather than widening it silently.
const configSchemaConstraint = ">= 1.0, < 2.0"

// BandConfig is a single monitored WSPR band, mirroring
// DecoderBandConfig's name/frequency/enabled shape.
type BandConfig struct {
	Name      string `yaml:"name"`
	Frequency uint64 `yaml:"frequency"`
	Enabled   bool   `yaml:"enabled"`
}

// WSPRNetConfig configures WSPRNet spot reporting.
type WSPRNetConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Callsign string `yaml:"callsign"` // optional override of ReceiverCallsign
}

// MQTTTLSConfig configures TLS for the MQTT broker connection.
type MQTTTLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// MQTTConfig configures MQTT decode-result publishing.
type MQTTConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Broker          string        `yaml:"broker"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	TopicPrefix     string        `yaml:"topic_prefix"`
	QoS             byte          `yaml:"qos"`
	Retain          bool          `yaml:"retain"`
	PublishInterval int           `yaml:"publish_interval_secs"`
	TLS             MQTTTLSConfig `yaml:"tls"`
}

// SpotsLogConfig configures the compressed CSV spot log.
type SpotsLogConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DataDir      string `yaml:"data_dir"`
	LocatorsOnly bool   `yaml:"locators_only"`
	MaxAgeDays   int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Prometheus /metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // e.g. ":9500"
}

// Config is the complete wsprgo decoder configuration, matching
// DecoderConfig's yaml layout trimmed to WSPR-only fields (no jt9/js8
// binary paths or non-WSPR bands: this decoder is in-process, not a
// wrapper around an external tool).
type Config struct {
	SchemaVersion string `yaml:"schema_version"`

	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`

	ReceiverCallsign string `yaml:"receiver_callsign"`
	ReceiverLocator  string `yaml:"receiver_locator"`
	ReceiverAntenna  string `yaml:"receiver_antenna"`

	Bands []BandConfig `yaml:"bands"`

	WSPRNet  WSPRNetConfig  `yaml:"wsprnet"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	SpotsLog SpotsLogConfig `yaml:"spots_log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	KeepWav  bool           `yaml:"keep_wav"`
}

// LoadConfig reads and validates a YAML config file, filling in the
// same defaults decoder_config.go's load path applies.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", filename, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", filename, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = "1.0"
	}
	if c.SpotsLog.DataDir == "" {
		c.SpotsLog.DataDir = c.DataDir + "/spots"
	}
	if c.SpotsLog.MaxAgeDays == 0 {
		c.SpotsLog.MaxAgeDays = 90
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "wsprgo"
	}
	if c.MQTT.PublishInterval == 0 {
		c.MQTT.PublishInterval = 60
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9500"
	}
}

// Validate checks schema compatibility and cross-field requirements,
// following DecoderConfig.Validate's conditional-requirement pattern.
func (c *Config) Validate() error {
	if err := c.validateSchemaVersion(); err != nil {
		return err
	}

	if !c.Enabled {
		return nil
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("no bands configured")
	}
	for i, b := range c.Bands {
		if b.Name == "" {
			return fmt.Errorf("band %d: name cannot be empty", i)
		}
		if b.Frequency == 0 {
			return fmt.Errorf("band %s: frequency cannot be zero", b.Name)
		}
	}

	if c.WSPRNet.Enabled || c.MQTT.Enabled {
		if c.ReceiverCallsign == "" {
			return fmt.Errorf("receiver_callsign required for reporting")
		}
		if c.ReceiverLocator == "" {
			return fmt.Errorf("receiver_locator required for reporting")
		}
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker required when mqtt is enabled")
	}

	return nil
}

func (c *Config) validateSchemaVersion() error {
	constraint, err := version.NewConstraint(configSchemaConstraint)
	if err != nil {
		return fmt.Errorf("internal: invalid schema constraint: %w", err)
	}

	v, err := version.NewVersion(c.SchemaVersion)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", c.SchemaVersion, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("config schema_version %s is not supported by this binary (want %s)", c.SchemaVersion, configSchemaConstraint)
	}

	return nil
}

// EnabledBands returns only the bands marked enabled, matching
// DecoderConfig.GetEnabledBands.
func (c *Config) EnabledBands() []BandConfig {
	enabled := make([]BandConfig, 0, len(c.Bands))
	for _, b := range c.Bands {
		if b.Enabled {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// WSPRNetCallsign returns the callsign to report to WSPRNet, falling
// back to the receiver's own callsign when no override is set.
func (c *Config) WSPRNetCallsign() string {
	if c.WSPRNet.Callsign != "" {
		return c.WSPRNet.Callsign
	}
	return c.ReceiverCallsign
}
