// BYZRA ⸻ internal/config/config.go
// config loading & management

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"metaclean/internal/util"
)

const FileName = "metaclean.toml"

// overrides [log] level; a --log-level flag overrides both
const EnvLogLevel = "METACLEAN_LOG_LEVEL"

type SourceConfig struct {
	// "native" or "exiftool"
	Backend      string `toml:"backend"`
	ExiftoolPath string `toml:"exiftool_path"`
}

type WipeConfig struct {
	Copy   bool `toml:"copy"`
	Backup bool `toml:"backup"`
	Secure bool `toml:"secure"`
	Verify bool `toml:"verify"`
}

type WatchConfig struct {
	Paths      []string `toml:"paths"`
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`
	Recursive  bool     `toml:"recursive"`
	// files younger than this are still being written
	MinAge Duration `toml:"min_age"`
	// lua script defining should_clear(file), empty = default policy
	Policy string `toml:"policy"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Config struct {
	Source SourceConfig `toml:"source"`
	Wipe   WipeConfig   `toml:"wipe"`
	Watch  WatchConfig  `toml:"watch"`
	Log    LogConfig    `toml:"log"`
	Colors util.Palette `toml:"colors"`

	// file the config was read from, empty for defaults
	Path string `toml:"-"`
}

// toml-friendly time.Duration ("2s", "500ms")
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// returns default config values
func Default() *Config {
	home := os.Getenv("HOME")
	return &Config{
		Source: SourceConfig{Backend: "native"},
		Wipe:   WipeConfig{Verify: true},
		Watch: WatchConfig{
			Paths:      []string{filepath.Join(home, "Downloads")},
			Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
			Recursive:  false,
			MinAge:     Duration{2 * time.Second},
		},
		Log:    LogConfig{Level: "info"},
		Colors: util.DefaultPalette(),
	}
}

// search order when no explicit path is given
func SearchPaths() []string {
	return []string{
		FileName,
		filepath.Join("config", FileName),
		filepath.Join(os.Getenv("HOME"), ".metaclean", "config", FileName),
	}
}

// Load reads explicit, or the first file found in SearchPaths. A missing
// explicit file is an error; finding nothing in the search paths gives defaults.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		return loadFile(explicit)
	}

	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}

	return Default(), nil
}

func loadFile(path string) (*Config, error) {
	config := Default()

	md, err := toml.DecodeFile(path, config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config not found: %w", err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	config.Path = path
	config.normalize()

	return config, config.Validate()
}

func (c *Config) normalize() {
	// filter out commented paths
	var activePaths []string
	for _, path := range c.Watch.Paths {
		path = strings.TrimSpace(path)
		if len(path) > 0 && path[0] != '#' {
			activePaths = append(activePaths, expandHome(path))
		}
	}
	c.Watch.Paths = activePaths

	for i, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Watch.Extensions[i] = ext
	}

	c.Source.Backend = strings.ToLower(c.Source.Backend)
	c.Log.File = expandHome(c.Log.File)
	c.Watch.Policy = expandHome(c.Watch.Policy)
}

func (c *Config) Validate() error {
	switch c.Source.Backend {
	case "", "native", "exiftool":
	default:
		return fmt.Errorf("unknown source backend: %s", c.Source.Backend)
	}
	if c.Wipe.Copy && c.Wipe.Backup {
		return fmt.Errorf("wipe.copy and wipe.backup are mutually exclusive")
	}
	if c.Watch.MinAge.Duration < 0 {
		return fmt.Errorf("watch.min_age must not be negative")
	}
	if level := strings.TrimSpace(c.Log.Level); level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
		}
	}
	return nil
}

// environment overrides, applied after the file and before any flags
func (c *Config) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.Log.Level = level
	}
}

// saves the current configuration to a file
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// config directory exists
func SetupConfigDir() (string, error) {
	configDir := filepath.Join(os.Getenv("HOME"), ".metaclean", "config")
	err := os.MkdirAll(configDir, 0755)
	return configDir, err
}

func expandHome(path string) string {
	if path == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(os.Getenv("HOME"), path[2:])
	}
	return path
}
