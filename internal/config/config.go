package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://server-client-trial.onrender.com"

// Config holds the explorer settings after file, env and defaults merge.
type Config struct {
	BaseURL  string   `yaml:"base_url"`
	Timeout  Duration `yaml:"timeout"`
	SpecFile string   `yaml:"spec_file"`
	SpecURL  string   `yaml:"spec_url"`
	Editor   string   `yaml:"editor"`
	Debug    bool     `yaml:"debug"`
	LogFile  string   `yaml:"log_file"`
}

// Duration reads Go duration strings ("30s", "0") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: negative", s)
	}
	*d = Duration(v)
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/apitree/config.yaml or its platform
// equivalent. It returns "" when no config dir is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "apitree", "config.yaml")
}

// Load reads path (if set), then applies env overrides and defaults. When
// required is false a missing file is not an error.
func Load(path string, required bool) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(os.TempDir(), "apitree.log")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("APITREE_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("APITREE_SPEC_FILE")); v != "" {
		cfg.SpecFile = v
		cfg.SpecURL = ""
	}
	if v := strings.TrimSpace(os.Getenv("APITREE_SPEC_URL")); v != "" && cfg.SpecFile == "" {
		cfg.SpecURL = v
	}
	if v := strings.TrimSpace(os.Getenv("APITREE_EDITOR")); v != "" {
		cfg.Editor = v
	}
	if os.Getenv("APITREE_DEBUG") == "1" {
		cfg.Debug = true
	}
}

// NormalizeBaseURL adds a scheme when missing and drops trailing slashes.
func NormalizeBaseURL(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") {
		in = "http://" + in
	}
	return strings.TrimRight(in, "/")
}

// Spec returns the OpenAPI source in the form openapi.Load expects, or ""
// for the embedded description.
func (c *Config) Spec() string {
	if f := strings.TrimSpace(c.SpecFile); f != "" {
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		return "@" + f
	}
	return strings.TrimSpace(c.SpecURL)
}
