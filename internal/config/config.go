// Package config loads user settings for the pagers.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const fileName = "config.toml"

// Config holds layout and reader settings. Zero fields keep their defaults.
type Config struct {
	// Indent is the number of cells at the start of each paragraph.
	Indent int `toml:"indent" yaml:"indent"`

	// TitleGap is the number of blank rows after a chapter title.
	TitleGap int `toml:"title_gap" yaml:"title_gap"`

	// EastAsianWidth counts ambiguous width characters as two cells.
	EastAsianWidth bool `toml:"east_asian_width" yaml:"east_asian_width"`

	// Headings are extra regular expressions matching chapter headings in
	// plain text books.
	Headings []string `toml:"headings" yaml:"headings"`

	// LogFile receives debug logs when set.
	LogFile string `toml:"log_file" yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Indent:   2,
		TitleGap: 1,
	}
}

// DefaultPath returns XDG_CONFIG_HOME/prr/config.toml or ~/.config/prr/config.toml
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "prr", fileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "prr", fileName)
}

// Load reads the settings at path on top of Default. Files ending in .yaml
// or .yml are YAML, anything else is TOML. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(f, &cfg)
	default:
		err = decodeTOML(f, &cfg)
	}
	if err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func decodeTOML(r io.Reader, cfg *Config) error {
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown setting %q", undecoded[0].String())
	}
	return nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports settings no layout can honor.
func (c Config) Validate() error {
	if c.Indent < 0 {
		return fmt.Errorf("indent must not be negative, got %d", c.Indent)
	}
	if c.TitleGap < 0 {
		return fmt.Errorf("title_gap must not be negative, got %d", c.TitleGap)
	}
	return nil
}
