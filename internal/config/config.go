// File: internal/config/config.go
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/gridclick/internal/driver"
	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/grid"
	"github.com/xkilldash9x/gridclick/internal/platform"
	"github.com/xkilldash9x/gridclick/internal/preview"
)

// Default capture region size, placed a third of the way into the display.
const (
	DefaultRegionWidth  = 320
	DefaultRegionHeight = 240
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Sampler() SamplerConfig
	Grid() grid.Config
	Driver() driver.Config
	Platform() PlatformConfig
	Browser() platform.BrowserOptions
	Preview() preview.Config
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig            `mapstructure:"logger" yaml:"logger"`
	SamplerCfg  SamplerConfig           `mapstructure:"sampler" yaml:"sampler"`
	GridCfg     grid.Config             `mapstructure:"grid" yaml:"grid"`
	DriverCfg   driver.Config           `mapstructure:"driver" yaml:"driver"`
	PlatformCfg PlatformConfig          `mapstructure:"platform" yaml:"platform"`
	BrowserCfg  platform.BrowserOptions `mapstructure:"browser" yaml:"browser"`
	PreviewCfg  preview.Config          `mapstructure:"preview" yaml:"preview"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig             { return c.LoggerCfg }
func (c *Config) Sampler() SamplerConfig           { return c.SamplerCfg }
func (c *Config) Grid() grid.Config                { return c.GridCfg }
func (c *Config) Driver() driver.Config            { return c.DriverCfg }
func (c *Config) Platform() PlatformConfig         { return c.PlatformCfg }
func (c *Config) Browser() platform.BrowserOptions { return c.BrowserCfg }
func (c *Config) Preview() preview.Config          { return c.PreviewCfg }

// PlatformOptions assembles the options for platform.Open.
func (c *Config) PlatformOptions() platform.Options {
	return platform.Options{
		Backend:   c.PlatformCfg.Backend,
		Browser:   c.BrowserCfg,
		DryScreen: geometry.NewRect(0, 0, c.PlatformCfg.DryScreenWidth, c.PlatformCfg.DryScreenHeight),
	}
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// RegionConfig is the capture rectangle as written in config files.
type RegionConfig struct {
	Left   int `mapstructure:"left" yaml:"left"`
	Top    int `mapstructure:"top" yaml:"top"`
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	// AutoPlace ignores Left and Top and centers the region a third of the
	// way into the primary display.
	AutoPlace bool `mapstructure:"auto_place" yaml:"auto_place"`
}

// Rect returns the configured rectangle as-is.
func (r RegionConfig) Rect() geometry.Rect {
	return geometry.NewRect(r.Left, r.Top, r.Width, r.Height)
}

// Resolve places the region on screen, honoring AutoPlace.
func (r RegionConfig) Resolve(screen geometry.Rect) geometry.Rect {
	if !r.AutoPlace {
		return r.Rect()
	}
	return PlaceRegion(screen, r.Width, r.Height)
}

// PlaceRegion positions a width x height region at a third of the free
// space on each axis of screen.
func PlaceRegion(screen geometry.Rect, width, height int) geometry.Rect {
	return geometry.NewRect(
		screen.Left+(screen.Width-width)/3,
		screen.Top+(screen.Height-height)/3,
		width, height,
	)
}

// SamplerConfig controls the capture loop.
type SamplerConfig struct {
	Region RegionConfig  `mapstructure:"region" yaml:"region"`
	Period time.Duration `mapstructure:"period" yaml:"period"`
}

// PlatformConfig selects the capture and input backend.
type PlatformConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Fake display size for the dry backend.
	DryScreenWidth  int `mapstructure:"dry_screen_width" yaml:"dry_screen_width"`
	DryScreenHeight int `mapstructure:"dry_screen_height" yaml:"dry_screen_height"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "gridclick")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Sampler --
	v.SetDefault("sampler.region.left", 0)
	v.SetDefault("sampler.region.top", 0)
	v.SetDefault("sampler.region.width", DefaultRegionWidth)
	v.SetDefault("sampler.region.height", DefaultRegionHeight)
	v.SetDefault("sampler.region.auto_place", true)
	v.SetDefault("sampler.period", "100ms")

	// -- Grid --
	v.SetDefault("grid.h_cells", grid.DefaultCells)
	v.SetDefault("grid.v_cells", grid.DefaultCells)

	// -- Driver --
	v.SetDefault("driver.safer", false)
	v.SetDefault("driver.min_interval", driver.DefaultMinInterval.String())
	v.SetDefault("driver.jitter_radius", driver.DefaultJitterRadius)
	v.SetDefault("driver.start_mode", driver.ModeIdle.String())

	// -- Platform --
	v.SetDefault("platform.backend", platform.BackendDry)
	v.SetDefault("platform.dry_screen_width", 1920)
	v.SetDefault("platform.dry_screen_height", 1080)

	// -- Browser --
	v.SetDefault("browser.url", "about:blank")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 800)
	v.SetDefault("browser.startup_timeout", "30s")

	// -- Preview --
	v.SetDefault("preview.path", "")
	v.SetDefault("preview.interval", preview.DefaultInterval.String())
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.SamplerCfg.Validate(); err != nil {
		return fmt.Errorf("sampler configuration invalid: %w", err)
	}
	if err := c.GridCfg.Validate(); err != nil {
		return fmt.Errorf("grid configuration invalid: %w", err)
	}
	if c.DriverCfg.MinInterval < 0 {
		return fmt.Errorf("driver.min_interval must not be negative")
	}
	if c.DriverCfg.JitterRadius < 0 {
		return fmt.Errorf("driver.jitter_radius must not be negative")
	}
	if _, err := driver.ParseMode(c.DriverCfg.StartMode); err != nil {
		return fmt.Errorf("driver.start_mode: %w", err)
	}
	backend := strings.ToLower(c.PlatformCfg.Backend)
	if backend != "" && !slices.Contains(platform.Names(), backend) {
		return fmt.Errorf("platform.backend must be one of %s, got %q", strings.Join(platform.Names(), ", "), c.PlatformCfg.Backend)
	}
	if backend == platform.BackendBrowser && (c.BrowserCfg.Width <= 0 || c.BrowserCfg.Height <= 0) {
		return fmt.Errorf("browser.width and browser.height must be positive integers")
	}
	if c.PreviewCfg.Interval < 0 {
		return fmt.Errorf("preview.interval must not be negative")
	}
	return nil
}

// Validate checks the SamplerConfig settings.
func (s *SamplerConfig) Validate() error {
	if s.Region.Width < 0 || s.Region.Height < 0 {
		return fmt.Errorf("region size must not be negative (got %dx%d)", s.Region.Width, s.Region.Height)
	}
	if s.Period < 0 {
		return fmt.Errorf("period must not be negative")
	}
	return nil
}
