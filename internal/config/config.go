package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFileName is looked up (as webplots.yaml) in the working
// directory and /etc/webplots when no explicit file is given.
const DefaultConfigFileName = "webplots"

// EnvPrefix namespaces environment overrides, e.g. WEBPLOTS_SERVER_PORT.
const EnvPrefix = "WEBPLOTS"

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	// BodyLimit caps request bodies, in echo's size notation ("32M").
	BodyLimit string `mapstructure:"body_limit" yaml:"body_limit"`
}

// RenderConfig seeds new workspaces and static exports.
type RenderConfig struct {
	ChartWidth  float64 `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight float64 `mapstructure:"chart_height" yaml:"chart_height"`
	MaxTraces   int     `mapstructure:"max_traces" yaml:"max_traces"`
	Palette     string  `mapstructure:"palette" yaml:"palette"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
	File   string `mapstructure:"file" yaml:"file"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(b), nil
}

// NewViper returns a viper instance carrying the defaults and environment
// bindings. Callers bind their command line flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile (or the first webplots.yaml found on the search path)
// into v and unmarshals the result. A missing default file is not an error;
// a missing explicit file is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/webplots/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Render.ChartWidth <= 0 || c.Render.ChartHeight <= 0 {
		return fmt.Errorf("render chart size must be positive: %vx%v", c.Render.ChartWidth, c.Render.ChartHeight)
	}
	if c.Render.MaxTraces < 0 {
		return fmt.Errorf("render.max_traces must not be negative: %d", c.Render.MaxTraces)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.body_limit", "32M")

	v.SetDefault("render.chart_width", 1280)
	v.SetDefault("render.chart_height", 720)
	v.SetDefault("render.max_traces", 8)
	v.SetDefault("render.palette", "Default")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}
