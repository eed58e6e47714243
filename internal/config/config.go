package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. BaseDir is the root of the durable
// state: every stage and quarantine folder lives under it.
type Paths struct {
	BaseDir string `toml:"base_dir"`
	LogDir  string `toml:"log_dir"`
}

// Pipeline contains stage timing and scheduler cadence.
type Pipeline struct {
	IncomingCoolDownMinutes int `toml:"incoming_cool_down_minutes"`
	FinishedCoolDownMinutes int `toml:"finished_cool_down_minutes"`
	TickIntervalSeconds     int `toml:"tick_interval_seconds"`
	ScrapeIntervalSeconds   int `toml:"scrape_interval_seconds"`
}

// IDIS contains connection settings for the anonymization web API.
type IDIS struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Token          string `toml:"token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Stream is one configured route through the pipeline. Streams are read-only
// reference data; the pipeline never mutates them.
type Stream struct {
	Name         string `toml:"name"`
	OutputFolder string `toml:"output_folder"`
	Profile      string `toml:"profile"`
	Contact      string `toml:"contact"`
	RoutingKey   string `toml:"routing_key"`
}

// Quarantine names one quarantine folder that the external engine fills and
// this system mirrors.
type Quarantine struct {
	Path        string `toml:"path"`
	Description string `toml:"description"`
}

// Config encapsulates all configuration values for anonpipe.
type Config struct {
	Paths       Paths        `toml:"paths"`
	Pipeline    Pipeline     `toml:"pipeline"`
	IDIS        IDIS         `toml:"idis"`
	Logging     Logging      `toml:"logging"`
	Streams     []Stream     `toml:"streams"`
	Quarantines []Quarantine `toml:"quarantines"`
}

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Pipeline: Pipeline{
			IncomingCoolDownMinutes: 5,
			FinishedCoolDownMinutes: 2 * 24 * 60,
			TickIntervalSeconds:     60,
			ScrapeIntervalSeconds:   300,
		},
		IDIS: IDIS{
			RequestTimeout: 30,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/anonpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("anonpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	for i := range c.Streams {
		c.Streams[i].Name = strings.TrimSpace(c.Streams[i].Name)
		if c.Streams[i].OutputFolder, err = expandPath(c.Streams[i].OutputFolder); err != nil {
			return err
		}
	}
	for i := range c.Quarantines {
		if c.Quarantines[i].Path, err = expandPath(c.Quarantines[i].Path); err != nil {
			return err
		}
	}
	return nil
}

// StagesDir returns the root of the per-stage folder tree.
func (c *Config) StagesDir() string {
	return filepath.Join(c.Paths.BaseDir, "stages")
}

// QuarantineDir returns the root of the quarantine mirror tree.
func (c *Config) QuarantineDir() string {
	return filepath.Join(c.Paths.BaseDir, "quarantine")
}

// RecordsDBPath returns the location of the correlation records database.
func (c *Config) RecordsDBPath() string {
	return filepath.Join(c.Paths.BaseDir, "records.db")
}

// LockPath returns the daemon lock file guarding the base folder tree.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.BaseDir, "anonpipe.lock")
}

// IncomingCoolDown returns the minimum dwell time in the incoming stage.
func (c *Config) IncomingCoolDown() time.Duration {
	return time.Duration(c.Pipeline.IncomingCoolDownMinutes) * time.Minute
}

// FinishedCoolDown returns the retention period of the finished stage.
func (c *Config) FinishedCoolDown() time.Duration {
	return time.Duration(c.Pipeline.FinishedCoolDownMinutes) * time.Minute
}

// TickInterval returns the cadence of the pipeline tick.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Pipeline.TickIntervalSeconds) * time.Second
}

// ScrapeInterval returns the cadence of the quarantine scrape.
func (c *Config) ScrapeInterval() time.Duration {
	return time.Duration(c.Pipeline.ScrapeIntervalSeconds) * time.Second
}

// EnsureDirectories creates the directories the daemon needs at startup.
// Stage and quarantine subfolders are created lazily by their owners.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the given location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
