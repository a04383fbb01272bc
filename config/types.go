// Package config provides configuration management for troupe
package config

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return true
	default:
		return false
	}
}

// Config represents the complete troupe configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Propagation engine configuration
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Serializer configuration
	Serde SerdeConfig `yaml:"serde" json:"serde"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`

	// Debug mode
	Debug bool `yaml:"debug" json:"debug"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Log format (json, text)
	Format string `yaml:"format" json:"format"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Enable colored output
	Color bool `yaml:"color" json:"color"`

	// Fields to include in log output
	Fields map[string]interface{} `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// EngineConfig contains propagation settings
type EngineConfig struct {
	// Maximum replies one propagation may yield, zero for unbounded
	MaxSteps int `yaml:"max_steps" json:"max_steps"`

	// Fail dispatches that find no handler
	StrictReplies bool `yaml:"strict_replies" json:"strict_replies"`
}

// SerdeConfig contains serializer settings
type SerdeConfig struct {
	// Reject schemas with erasing slots
	Strict bool `yaml:"strict" json:"strict"`

	// Rendering of dumps (yaml, json)
	Format string `yaml:"format" json:"format"`

	// Log every erasing slot at startup
	Audit bool `yaml:"audit" json:"audit"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "troupe",
			Environment: EnvDevelopment,
			Debug:       false,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: "text",
			Output: "stderr",
			Color:  true,
		},
		Engine: EngineConfig{
			MaxSteps:      10000,
			StrictReplies: false,
		},
		Serde: SerdeConfig{
			Strict: false,
			Format: "yaml",
			Audit:  true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	// Validate log config
	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ErrInvalidLogFormat
	}

	// Validate engine config
	if c.Engine.MaxSteps < 0 {
		return ErrInvalidMaxSteps
	}

	// Validate serde config
	if c.Serde.Format != "yaml" && c.Serde.Format != "json" {
		return ErrInvalidDumpFormat
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// GetLogLevel returns the log level
func (c *Config) GetLogLevel() LogLevel {
	if c.App.Debug && c.Log.Level != LogLevelTrace {
		return LogLevelDebug
	}
	return c.Log.Level
}
