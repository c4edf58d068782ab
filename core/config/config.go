package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pkgtree/pkgtree/core/logger"
)

// Config controls workspace discovery and the presentation surfaces. All
// fields have working defaults; a pkgtree.yaml is optional.
type Config struct {
	// Tool overrides workspace-tool detection (npm, yarn, pnpm, lerna).
	Tool string `yaml:"tool"`
	// Exclude lists extra glob patterns skipped during package discovery,
	// relative to the workspace root. node_modules is always skipped.
	Exclude []string `yaml:"exclude"`
	Server  Server   `yaml:"server"`
	Watch   Watch    `yaml:"watch"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Watch struct {
	DebounceMs int `yaml:"debounce_ms"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Host: "localhost",
			Port: 7317,
		},
		Watch: Watch{
			DebounceMs: 500,
		},
	}
}

// Load reads pkgtree.yaml from the given directories (first hit wins, the
// working directory is always tried last) and applies environment overrides.
// A missing file is not an error; defaults are returned.
func Load(dirs ...string) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working dir: %w", err)
	}

	paths := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		if d != "" {
			paths = append(paths, filepath.Join(d, "pkgtree.yaml"))
		}
	}
	paths = append(paths, filepath.Join(wd, "pkgtree.yaml"))

	cfg := Default()

	var filePath string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			filePath = p
			break
		}
	}

	if filePath == "" {
		logger.Debug("No config file found, using defaults")
	} else {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
		logger.Debug("Config file found: %s", filePath)
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	logger.Debug("Config: %+v", cfg)
	return cfg, nil
}

// applyEnv layers PKGTREE_* environment variables over the file values,
// loading a .env next to the process first when one exists.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if tool := os.Getenv("PKGTREE_TOOL"); tool != "" {
		c.Tool = tool
	}
	if host := os.Getenv("PKGTREE_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PKGTREE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Warn("Ignoring invalid PKGTREE_PORT %q: %v", port, err)
		} else {
			c.Server.Port = p
		}
	}
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = def.Watch.DebounceMs
	}
}
