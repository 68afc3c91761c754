// Package config handles mopup configuration loading and defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultBaseURL is the python.org release listing.
const DefaultBaseURL = "https://www.python.org/ftp/python/"

// Config holds the tunable settings of an update run. Zero values are
// filled in from Default; flags override whatever the file says.
type Config struct {
	BaseURL      string `toml:"base_url"`
	DownloadsDir string `toml:"downloads_dir"`
	Interpreter  string `toml:"interpreter"`
	MinorUpgrade bool   `toml:"minor_upgrade"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		BaseURL:      DefaultBaseURL,
		DownloadsDir: filepath.Join(home, "Downloads"),
		Interpreter:  "python3",
	}
}

// Find resolves the config file path: the explicit path if given (and it
// must exist), otherwise ~/.config/mopup/config.toml if present,
// otherwise "" meaning "defaults only".
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	p := filepath.Join(home, ".config", "mopup", "config.toml")
	if _, err := os.Stat(p); err != nil {
		return "", nil
	}
	return p, nil
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base_url %q is not an http(s) URL", c.BaseURL)
	}
	if c.DownloadsDir == "" {
		return fmt.Errorf("downloads_dir must not be empty")
	}
	if c.Interpreter == "" {
		return fmt.Errorf("interpreter must not be empty")
	}
	return nil
}
