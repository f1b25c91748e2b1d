// Package config loads the server's YAML configuration and watches the
// referenced network description files for changes.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConf is the top-level YAML structure.
type ServerConf struct {
	ListenAddr   string       `yaml:"listen_addr"`
	StrictStates bool         `yaml:"strict_states"`
	SweepWorkers int          `yaml:"sweep_workers"`
	Networks     []NetworkRef `yaml:"networks"`
}

// NetworkRef points at one network description file to preload.
type NetworkRef struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Load reads and parses the config file and applies defaults.
func Load(path string) (*ServerConf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg ServerConf
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.SweepWorkers == 0 {
		cfg.SweepWorkers = 8
	}
	return &cfg, nil
}

// Validate checks for missing fields and duplicate network names.
func Validate(cfg *ServerConf) error {
	var errs []string
	seen := make(map[string]int)
	for i, ref := range cfg.Networks {
		if ref.Name == "" {
			errs = append(errs, fmt.Sprintf("networks[%d]: name is required", i))
		}
		if ref.Path == "" {
			errs = append(errs, fmt.Sprintf("networks[%d]: path is required", i))
		}
		if prev, dup := seen[ref.Name]; dup {
			errs = append(errs, fmt.Sprintf("networks[%d]: duplicate name %q (first at networks[%d])", i, ref.Name, prev))
		} else {
			seen[ref.Name] = i
		}
	}
	if cfg.SweepWorkers < 0 {
		errs = append(errs, "sweep_workers must be non-negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
