// Package config loads settings from an optional YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"grabdoc/internal/browser"
	"grabdoc/internal/output"
	"grabdoc/internal/render"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "config.yaml"

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

type RenderConfig struct {
	RendertimeMS       int `yaml:"rendertime_ms"`
	InitialDelayMS     int `yaml:"initial_delay_ms"`
	NavigateTimeoutSec int `yaml:"navigate_timeout_sec"`
	MaxScrollSteps     int `yaml:"max_scroll_steps"`
	StallLimit         int `yaml:"stall_limit"`
}

type BrowserConfig struct {
	Headless  bool   `yaml:"headless"`
	Proxy     string `yaml:"proxy"`
	NoSandbox bool   `yaml:"no_sandbox"`
	UserAgent string `yaml:"user_agent"`
}

type CacheConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Browser BrowserConfig `yaml:"browser"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Dir: "output", Filename: string(output.ByTitle)},
		Render: RenderConfig{
			RendertimeMS:       100,
			InitialDelayMS:     1000,
			NavigateTimeoutSec: 60,
			MaxScrollSteps:     20000,
			StallLimit:         50,
		},
		Browser: BrowserConfig{Headless: true, UserAgent: browser.DefaultUserAgent},
		Cache:   CacheConfig{Driver: "sqlite", DSN: "history.db"},
		Server:  ServerConfig{Port: 4173},
	}
}

// Load builds the configuration. An empty path reads DefaultPath if it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	// The browser and the fetch client share one user agent.
	if strings.TrimSpace(cfg.Browser.UserAgent) == "" {
		cfg.Browser.UserAgent = browser.DefaultUserAgent
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("GRABDOC_OUTPUT"); ok {
		c.Output.Dir = v
	}
	if v, ok := lookup("GRABDOC_FILENAME"); ok {
		c.Output.Filename = strings.ToLower(v)
	}
	if v, ok := lookup("GRABDOC_RENDERTIME"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRABDOC_RENDERTIME %q: %w", v, err)
		}
		c.Render.RendertimeMS = n
	}
	if v, ok := lookup("GRABDOC_PROXY"); ok {
		c.Browser.Proxy = v
	}
	if v, ok := lookup("UI_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid UI_PORT %q: %w", v, err)
		}
		c.Server.Port = n
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		c.Cache.Driver = "postgres"
		c.Cache.DSN = v
	}
	if v, ok := lookup("GRABDOC_CACHE_DSN"); ok {
		c.Cache.DSN = v
	}
	if v, ok := lookup("CI"); ok && strings.EqualFold(v, "true") {
		c.Browser.NoSandbox = true
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch output.Strategy(c.Output.Filename) {
	case output.ByTitle, output.ByID:
	default:
		return fmt.Errorf("invalid output.filename %q: must be %q or %q", c.Output.Filename, output.ByTitle, output.ByID)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	positive := map[string]int{
		"render.rendertime_ms":        c.Render.RendertimeMS,
		"render.navigate_timeout_sec": c.Render.NavigateTimeoutSec,
		"render.max_scroll_steps":     c.Render.MaxScrollSteps,
		"render.stall_limit":          c.Render.StallLimit,
		"server.port":                 c.Server.Port,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, v)
		}
	}
	if c.Render.InitialDelayMS < 0 {
		return fmt.Errorf("render.initial_delay_ms cannot be negative, got %d", c.Render.InitialDelayMS)
	}
	return nil
}

// Timing converts the render settings.
func (c *Config) Timing() render.Timing {
	return render.Timing{
		InitialDelay: time.Duration(c.Render.InitialDelayMS) * time.Millisecond,
		Settle:       time.Duration(c.Render.RendertimeMS) * time.Millisecond,
		MaxSteps:     c.Render.MaxScrollSteps,
		StallLimit:   c.Render.StallLimit,
	}
}

// Layout returns the output naming settings.
func (c *Config) Layout() output.Layout {
	return output.Layout{Dir: c.Output.Dir, Strategy: output.Strategy(c.Output.Filename)}
}

// BrowserConfig returns the launch settings.
func (c *Config) BrowserConfig() browser.Config {
	return browser.Config{
		Headless:        c.Browser.Headless,
		ProxyURL:        c.Browser.Proxy,
		NoSandbox:       c.Browser.NoSandbox,
		UserAgent:       c.Browser.UserAgent,
		NavigateTimeout: time.Duration(c.Render.NavigateTimeoutSec) * time.Second,
	}
}
