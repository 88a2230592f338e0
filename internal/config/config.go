package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of agentdesk.
type Config struct {
	Server     ServerConfig
	Device     DeviceConfig
	Browser    BrowserConfig
	Scaling    ScalingConfig
	Screenshot ScreenshotConfig
	Timings    TimingsConfig
	Retention  RetentionConfig
}

type ServerConfig struct {
	Addr string
}

// DeviceConfig selects the primitive backend.
type DeviceConfig struct {
	Backend string // "desktop" or "browser"
	Display int
}

type BrowserConfig struct {
	URL      string
	Width    int
	Height   int
	Headless bool
}

// ScalingConfig toggles API<->device coordinate scaling. A zero width or
// height keeps scaling an identity even when enabled.
type ScalingConfig struct {
	Enabled bool
	Width   int
	Height  int
}

type ScreenshotConfig struct {
	Dir    string
	Settle time.Duration
	Resize bool
	Width  int
	Height int
}

type TimingsConfig struct {
	Typing       time.Duration
	Drag         time.Duration
	Hover        time.Duration
	Wait         time.Duration
	ScrollAmount int
}

type RetentionConfig struct {
	Enabled  bool
	Schedule string
	MaxAge   time.Duration
}

const (
	BackendDesktop = "desktop"
	BackendBrowser = "browser"
)

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("device.backend", BackendDesktop)
	v.SetDefault("device.display", 0)
	v.SetDefault("browser.url", "about:blank")
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 800)
	v.SetDefault("browser.headless", true)
	v.SetDefault("scaling.enabled", false)
	v.SetDefault("scaling.width", 0)
	v.SetDefault("scaling.height", 0)
	v.SetDefault("screenshot.dir", "./tmp/outputs")
	v.SetDefault("screenshot.settle", 700*time.Millisecond)
	v.SetDefault("screenshot.resize", false)
	v.SetDefault("screenshot.width", 1920)
	v.SetDefault("screenshot.height", 1080)
	v.SetDefault("timings.typing", 12*time.Millisecond)
	v.SetDefault("timings.drag", 500*time.Millisecond)
	v.SetDefault("timings.hover", 500*time.Millisecond)
	v.SetDefault("timings.wait", time.Second)
	v.SetDefault("timings.scroll_amount", 100)
	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.schedule", "0 * * * *")
	v.SetDefault("retention.max_age", 24*time.Hour)

	v.SetEnvPrefix("AGENTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("server.addr", "AGENTDESK_SERVER_ADDR", "ADDR")
	v.BindEnv("device.display", "AGENTDESK_DEVICE_DISPLAY", "DISPLAY_NUM")

	return v
}

// Load reads configuration from defaults, environment and an optional yaml
// file. When file is empty the usual search paths are tried and a missing
// file is not an error.
func Load(file string) (*Config, error) {
	v := newViper()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range []string{".", "$HOME/.agentdesk", "/etc/agentdesk"} {
			v.AddConfigPath(os.ExpandEnv(path))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{Addr: v.GetString("server.addr")},
		Device: DeviceConfig{
			Backend: strings.ToLower(v.GetString("device.backend")),
			Display: v.GetInt("device.display"),
		},
		Browser: BrowserConfig{
			URL:      v.GetString("browser.url"),
			Width:    v.GetInt("browser.width"),
			Height:   v.GetInt("browser.height"),
			Headless: v.GetBool("browser.headless"),
		},
		Scaling: ScalingConfig{
			Enabled: v.GetBool("scaling.enabled"),
			Width:   v.GetInt("scaling.width"),
			Height:  v.GetInt("scaling.height"),
		},
		Screenshot: ScreenshotConfig{
			Dir:    v.GetString("screenshot.dir"),
			Settle: v.GetDuration("screenshot.settle"),
			Resize: v.GetBool("screenshot.resize"),
			Width:  v.GetInt("screenshot.width"),
			Height: v.GetInt("screenshot.height"),
		},
		Timings: TimingsConfig{
			Typing:       v.GetDuration("timings.typing"),
			Drag:         v.GetDuration("timings.drag"),
			Hover:        v.GetDuration("timings.hover"),
			Wait:         v.GetDuration("timings.wait"),
			ScrollAmount: v.GetInt("timings.scroll_amount"),
		},
		Retention: RetentionConfig{
			Enabled:  v.GetBool("retention.enabled"),
			Schedule: v.GetString("retention.schedule"),
			MaxAge:   v.GetDuration("retention.max_age"),
		},
	}
}

// Validate rejects settings no backend can honour.
func (c *Config) Validate() error {
	switch c.Device.Backend {
	case BackendDesktop, BackendBrowser:
	default:
		return fmt.Errorf("unsupported device backend: %s", c.Device.Backend)
	}
	if c.Screenshot.Dir == "" {
		return fmt.Errorf("screenshot.dir must not be empty")
	}
	if c.Screenshot.Resize && (c.Screenshot.Width <= 0 || c.Screenshot.Height <= 0) {
		return fmt.Errorf("screenshot resize target must be positive, got %dx%d", c.Screenshot.Width, c.Screenshot.Height)
	}
	if c.Scaling.Width < 0 || c.Scaling.Height < 0 {
		return fmt.Errorf("scaling target must not be negative, got %dx%d", c.Scaling.Width, c.Scaling.Height)
	}
	if c.Retention.Enabled && c.Retention.MaxAge <= 0 {
		return fmt.Errorf("retention.max_age must be positive when retention is enabled")
	}
	return nil
}
