// Package config handles vtypekit.toml workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/vtypekit/obj"
	"github.com/joshuapare/vtypekit/pkg/logger"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "vtypekit.toml"

// Config represents a vtypekit.toml workspace configuration.
type Config struct {
	Tables   Tables         `toml:"tables"`
	Profile  Profile        `toml:"profile"`
	Metadata map[string]any `toml:"metadata"`
	Log      Log            `toml:"log"`

	// Dir is the directory containing the vtypekit.toml file (set at load time).
	Dir string `toml:"-"`
}

// Tables configures where type tables are found.
type Tables struct {
	Dirs    []string `toml:"dirs"`
	Default string   `toml:"default"`
}

// Profile holds defaults for profile construction.
type Profile struct {
	Bits int `toml:"bits"`
}

// Log configures logging.
type Log struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Level   string `toml:"level"`
	JSON    bool   `toml:"json"`
}

// Default returns the configuration used when no vtypekit.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a vtypekit.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	if c.Profile.Bits != 32 && c.Profile.Bits != 64 {
		return nil, fmt.Errorf("%s: profile.bits must be 32 or 64, got %d", path, c.Profile.Bits)
	}

	return &c, nil
}

// FindAndLoad walks up from startDir to find a vtypekit.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if len(c.Tables.Dirs) == 0 {
		c.Tables.Dirs = []string{"tables"}
	}
	if c.Profile.Bits == 0 {
		c.Profile.Bits = 32
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TableDirPaths returns absolute paths for the configured table directories.
func (c *Config) TableDirPaths() []string {
	var paths []string
	for _, d := range c.Tables.Dirs {
		if filepath.IsAbs(d) {
			paths = append(paths, d)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// ExtraMetadata returns the [metadata] section as profile metadata.
func (c *Config) ExtraMetadata() obj.Metadata {
	md := make(obj.Metadata, len(c.Metadata))
	for k, v := range c.Metadata {
		md[k] = v
	}
	return md
}

// LoggerOptions converts the [log] section for logger.New. A relative log
// directory is taken relative to the config directory.
func (c *Config) LoggerOptions() logger.Options {
	dir := c.Log.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir, dir)
	}
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  dir,
		Level:   logger.ParseLevel(c.Log.Level),
		JSON:    c.Log.JSON,
	}
}
