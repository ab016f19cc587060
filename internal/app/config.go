package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/spf13/viper"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/logger"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "GOSCOPE"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Pipeline configures capture and analysis. Pipeline.Gain is replaced by
	// Gain or the saved gain when the application starts.
	Pipeline domain.PipelineConfig

	// CaptureMode selects the device kind ("" = saved preference, then OS default)
	CaptureMode domain.CaptureMode

	// DeviceName selects a device by name ("" = saved preference, then automatic)
	DeviceName string

	// Gain multiplies the waveform (0 = saved preference)
	Gain float64

	// RefreshRate is the render loop frequency in Hz
	RefreshRate int

	// StreamAddr enables the websocket snapshot stream when set
	StreamAddr string

	// StreamRate is the maximum websocket frame rate in Hz
	StreamRate int

	// AutoStart starts capture as soon as the window opens
	AutoStart bool

	// UseMockAudio determines whether to use the synthetic audio source (for testing)
	UseMockAudio bool

	// Log configures the logger
	Log logger.Config

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:       "com.goscope.app",
		AppName:     "GoScope",
		Pipeline:    domain.DefaultPipelineConfig(),
		RefreshRate: 30,
		StreamRate:  20,
		AutoStart:   true,
		Log:         logger.DefaultConfig(),
	}
}

// DefaultCaptureMode is loopback on Windows, where WASAPI exposes loopback
// devices out of the box, and microphone elsewhere.
func DefaultCaptureMode() domain.CaptureMode {
	if runtime.GOOS == "windows" {
		return domain.ModeLoopback
	}
	return domain.ModeMicrophone
}

// fileConfig mirrors the keys accepted in goscope.yaml, environment variables
// and command-line flags.
type fileConfig struct {
	Mode          string  `mapstructure:"mode"`
	Device        string  `mapstructure:"device"`
	Gain          float64 `mapstructure:"gain"`
	NoiseGate     float64 `mapstructure:"noise_gate"`
	SampleRate    int     `mapstructure:"sample_rate"`
	BufferSize    int     `mapstructure:"buffer_size"`
	DisplayLength int     `mapstructure:"display_length"`
	RefreshRate   int     `mapstructure:"refresh_rate"`
	AutoStart     bool    `mapstructure:"auto_start"`
	Mock          bool    `mapstructure:"mock"`

	Stream struct {
		Addr string `mapstructure:"addr"`
		Rate int    `mapstructure:"rate"`
	} `mapstructure:"stream"`

	Log struct {
		Level      string `mapstructure:"level"`
		Format     string `mapstructure:"format"`
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	} `mapstructure:"log"`
}

// SetDefaults registers every configuration key on v. Keys must be known to
// viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("mode", "")
	v.SetDefault("device", "")
	v.SetDefault("gain", 0.0)
	v.SetDefault("noise_gate", def.Pipeline.NoiseGateThreshold)
	v.SetDefault("sample_rate", def.Pipeline.SampleRate)
	v.SetDefault("buffer_size", def.Pipeline.BufferSize)
	v.SetDefault("display_length", def.Pipeline.DisplayLength)
	v.SetDefault("refresh_rate", def.RefreshRate)
	v.SetDefault("auto_start", def.AutoStart)
	v.SetDefault("mock", false)
	v.SetDefault("stream.addr", "")
	v.SetDefault("stream.rate", def.StreamRate)
	v.SetDefault("log.level", def.Log.Level.String())
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
}

// LoadConfig reads the configuration from cfgFile (or goscope.yaml in the
// user config directory or the working directory) and GOSCOPE_* environment
// variables. Flags bound to v before the call take precedence over both.
func LoadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("goscope")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	return fc.toConfig()
}

func (fc fileConfig) toConfig() (Config, error) {
	cfg := DefaultConfig()

	if fc.Mode != "" {
		mode, err := domain.ParseCaptureMode(fc.Mode)
		if err != nil {
			return Config{}, err
		}
		cfg.CaptureMode = mode
	}

	if fc.Gain < 0 {
		return Config{}, domain.NewValidationError("gain", fc.Gain, "must be positive")
	}

	level, err := logger.ParseLevel(fc.Log.Level)
	if err != nil {
		return Config{}, domain.NewValidationError("log.level", fc.Log.Level, err.Error())
	}

	cfg.DeviceName = fc.Device
	cfg.Gain = fc.Gain
	cfg.Pipeline.NoiseGateThreshold = fc.NoiseGate
	cfg.Pipeline.SampleRate = fc.SampleRate
	cfg.Pipeline.BufferSize = fc.BufferSize
	cfg.Pipeline.DisplayLength = fc.DisplayLength
	cfg.RefreshRate = fc.RefreshRate
	cfg.AutoStart = fc.AutoStart
	cfg.UseMockAudio = fc.Mock
	cfg.StreamAddr = fc.Stream.Addr
	cfg.StreamRate = fc.Stream.Rate
	cfg.Log = logger.Config{
		Level:      level,
		Format:     fc.Log.Format,
		File:       fc.Log.File,
		MaxSizeMB:  fc.Log.MaxSizeMB,
		MaxBackups: fc.Log.MaxBackups,
	}

	// Gain is validated once the saved preference is known
	check := cfg.Pipeline
	check.Gain = 1
	if err := check.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goscope")
}
