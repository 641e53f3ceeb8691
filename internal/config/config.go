package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	EnvPrefix  = "TOURPLAY"
	ConfigName = "tourplay"
)

// Config is the full runtime configuration of a playback session and the
// tools around it.
type Config struct {
	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`
	View     ViewConfig     `mapstructure:"view" yaml:"view"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Tours    ToursConfig    `mapstructure:"tours" yaml:"tours"`
}

type PlaybackConfig struct {
	Speed           float64       `mapstructure:"speed" yaml:"speed"`
	AutoStart       bool          `mapstructure:"auto_start" yaml:"auto_start"`
	VisitRadius     float64       `mapstructure:"visit_radius" yaml:"visit_radius"`
	SegmentDuration time.Duration `mapstructure:"segment_duration" yaml:"segment_duration"`
	TickInterval    time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
}

type ViewConfig struct {
	ShowLabels           bool `mapstructure:"show_labels" yaml:"show_labels"`
	ShowBranchHighlights bool `mapstructure:"show_branch_highlights" yaml:"show_branch_highlights"`
}

// LoggerConfig holds everything the logger needs
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type ToursConfig struct {
	// Dir is searched for the newest tour file when none is given
	Dir string `mapstructure:"dir" yaml:"dir"`
	// ExportDir receives generated exports
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`
}

// SetDefaults registers every default so the tools run without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("playback.speed", 1.0)
	v.SetDefault("playback.auto_start", false)
	v.SetDefault("playback.visit_radius", 20.0)
	v.SetDefault("playback.segment_duration", 10*time.Second)
	v.SetDefault("playback.tick_interval", 16*time.Millisecond)

	v.SetDefault("view.show_labels", true)
	v.SetDefault("view.show_branch_highlights", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "tourplay")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.ping_interval", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("tours.dir", "input/tours")
	v.SetDefault("tours.export_dir", "output")
}

// Prepare wires defaults, environment lookup and the config file search
// into v. An explicit file wins over the search path.
func Prepare(v *viper.Viper, file string) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file prepared on v. A missing file is not an error
// unless it was named explicitly.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration produced by the defaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	p := c.Playback
	if p.Speed <= 0 {
		errs = append(errs, fmt.Errorf("playback.speed must be positive, got %v", p.Speed))
	}
	if p.VisitRadius <= 0 {
		errs = append(errs, fmt.Errorf("playback.visit_radius must be positive, got %v", p.VisitRadius))
	}
	if p.SegmentDuration <= 0 {
		errs = append(errs, fmt.Errorf("playback.segment_duration must be positive, got %v", p.SegmentDuration))
	}
	if p.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("playback.tick_interval must be positive, got %v", p.TickInterval))
	}

	if _, err := zap.ParseAtomicLevel(c.Logger.Level); err != nil {
		errs = append(errs, fmt.Errorf("logger.level: %w", err))
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.ping_interval must be positive, got %v", c.Server.PingInterval))
	}
	return errors.Join(errs...)
}
