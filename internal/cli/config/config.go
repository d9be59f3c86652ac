package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config models the shellpane config file: named servers plus the one used
// when no name is given on the command line.
type Config struct {
	CurrentServer string             `yaml:"currentServer"`
	Servers       map[string]*Server `yaml:"servers"`
}

// Server encodes the connection details for one remote host. Passwords are
// not stored; they are prompted for at connect time when no key is set.
type Server struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	KeyPath        string `yaml:"keyPath,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// ErrServerNotFound indicates the requested server is missing.
var ErrServerNotFound = errors.New("server not found")

// Load decodes the config file. Missing files return (nil, nil).
func Load(path string) (*Config, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for name, srv := range cfg.Servers {
		if srv != nil && srv.Port == 0 {
			srv.Port = 22
		}
		if srv == nil {
			delete(cfg.Servers, name)
		}
	}
	return &cfg, nil
}

// Save writes the config to disk, creating parent directories if needed.
func (c *Config) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(expanded, data, 0o600); err != nil {
		return err
	}
	return nil
}

// Resolve picks a server either by explicit name or the currentServer value.
func (c *Config) Resolve(name string) (*Server, string, error) {
	if c == nil {
		return nil, "", nil
	}
	srvName := strings.TrimSpace(name)
	if srvName == "" {
		srvName = c.CurrentServer
	}
	if srvName == "" {
		return nil, "", nil
	}
	srv, ok := c.Servers[srvName]
	if !ok {
		return nil, srvName, fmt.Errorf("%w: %s", ErrServerNotFound, srvName)
	}
	return srv, srvName, nil
}

func expandPath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	case path == "~":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	case filepath.IsAbs(path):
		return path, nil
	default:
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path), nil
	}
}
