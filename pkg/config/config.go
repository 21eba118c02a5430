package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crashlink-project/crashlink-go/pkg/transport"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// Configuration defaults.
const (
	// DefaultChannelPath is the default handler socket path.
	DefaultChannelPath = "/var/run/crashlink/channel.sock"

	// DefaultHandlerTimeout bounds one handler invocation.
	DefaultHandlerTimeout = 30 * time.Second

	// DefaultReportDir is where pending reports are stored.
	DefaultReportDir = "/var/lib/crashlink"

	// DefaultPendingFile is the pending-report store file name, relative to
	// the report directory.
	DefaultPendingFile = "pending.json"
)

// ErrInvalidConfig indicates the configuration failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the bridge configuration for both the raise and handler sides.
type Config struct {
	Channel  ChannelConfig  `yaml:"channel"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Reports  ReportsConfig  `yaml:"reports"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ChannelConfig configures the exception channel endpoint.
type ChannelConfig struct {
	// Path is the Unix socket path of the handler.
	Path string `yaml:"path"`

	// MaxMessageSize caps one framed message in bytes.
	MaxMessageSize uint32 `yaml:"max_message_size"`
}

// DeliveryConfig configures the raise/catch exchange.
type DeliveryConfig struct {
	// DefaultBehavior names the behavior used when the raise side does not
	// specify one: "default", "state", or "state-identity", with an optional
	// "+wide" suffix for 64-bit code words.
	DefaultBehavior string `yaml:"default_behavior"`

	// HandlerTimeout bounds one handler invocation ("30s", "2m", ...).
	HandlerTimeout string `yaml:"handler_timeout"`
}

// ReportsConfig configures pending-report storage.
type ReportsConfig struct {
	// Dir is the report directory.
	Dir string `yaml:"dir"`

	// PendingFile is the pending-report store file name inside Dir.
	PendingFile string `yaml:"pending_file"`

	// WorldReadable makes report files readable beyond the owner.
	WorldReadable bool `yaml:"world_readable"`
}

// LoggingConfig configures delivery event logging.
type LoggingConfig struct {
	// File is the delivery log path (CBOR event stream). Empty disables
	// file logging.
	File string `yaml:"file"`

	// Console additionally mirrors events to stderr via slog.
	Console bool `yaml:"console"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Channel: ChannelConfig{
			Path:           DefaultChannelPath,
			MaxMessageSize: transport.DefaultMaxMessageSize,
		},
		Delivery: DeliveryConfig{
			DefaultBehavior: "default",
			HandlerTimeout:  DefaultHandlerTimeout.String(),
		},
		Reports: ReportsConfig{
			Dir:         DefaultReportDir,
			PendingFile: DefaultPendingFile,
		},
	}
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks all fields for consistency.
func (c *Config) Validate() error {
	if c.Channel.Path == "" {
		return fmt.Errorf("%w: channel path is required", ErrInvalidConfig)
	}
	if c.Channel.MaxMessageSize == 0 {
		return fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig)
	}
	if _, err := c.Behavior(); err != nil {
		return err
	}
	if _, err := c.HandlerTimeout(); err != nil {
		return err
	}
	if c.Reports.Dir == "" {
		return fmt.Errorf("%w: report directory is required", ErrInvalidConfig)
	}
	if c.Reports.PendingFile == "" {
		return fmt.Errorf("%w: pending file name is required", ErrInvalidConfig)
	}
	return nil
}

// Behavior parses the configured default behavior.
func (c *Config) Behavior() (wire.Behavior, error) {
	return ParseBehavior(c.Delivery.DefaultBehavior)
}

// HandlerTimeout parses the configured handler timeout.
func (c *Config) HandlerTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Delivery.HandlerTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: handler timeout: %v", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: handler timeout must be positive", ErrInvalidConfig)
	}
	return d, nil
}

// ParseBehavior maps a behavior name to its wire value. Accepted names are
// "default", "state", and "state-identity", optionally suffixed with "+wide".
func ParseBehavior(name string) (wire.Behavior, error) {
	base, wide := strings.CutSuffix(strings.ToLower(strings.TrimSpace(name)), "+wide")

	var b wire.Behavior
	switch base {
	case "default":
		b = wire.BehaviorDefault
	case "state":
		b = wire.BehaviorState
	case "state-identity":
		b = wire.BehaviorStateIdentity
	default:
		return 0, fmt.Errorf("%w: unknown behavior %q", ErrInvalidConfig, name)
	}
	if wide {
		b |= wire.WideCodes
	}
	return b, nil
}
