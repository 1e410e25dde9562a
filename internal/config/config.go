// Package config loads the host process's own settings — listen address,
// cache backend selection, data directory, default per-rule HTTP
// overrides — as opposed to rule.HTTPConfig, which configures a single
// rule's collaborator. Resolution follows the same "last non-zero wins"
// discipline as rule.HTTPConfig.Merge: built-in defaults, then an optional
// JSON file, then environment variables, then an explicit caller override,
// each layer replacing only the fields it sets.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nickheyer/crawlkit/internal/rule"
)

// CacheBackend selects which internal/cachestore implementation the host
// wires up for rules that don't pin their own.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendSQLite CacheBackend = "sqlite"
)

// Config is the crawlkit host process's own configuration, independent of
// any single rule document.
type Config struct {
	ListenAddr    string          `json:"listenAddr"`
	DataPath      string          `json:"dataPath"`
	CacheBackend  CacheBackend    `json:"cacheBackend"`
	CacheDBPath   string          `json:"cacheDbPath"`
	MaxConcurrent int             `json:"maxConcurrent"`
	DefaultHTTP   rule.HTTPConfig `json:"defaultHttp"`
}

// Default returns the built-in bottom layer of the config stack.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		DataPath:      "./data",
		CacheBackend:  CacheBackendMemory,
		CacheDBPath:   "./data/cache.db",
		MaxConcurrent: 5,
	}
}

// Load reads a JSON config file, merges it over Default(), then merges in
// any CRAWLKIT_*-prefixed environment variables, and sanitizes path fields.
// A missing file is not an error: Default() plus the environment layer is a
// valid configuration on its own.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		} else {
			var fromFile Config
			if err := json.Unmarshal(file, &fromFile); err != nil {
				return Config{}, err
			}
			cfg = cfg.Merge(fromFile)
		}
	}

	cfg = cfg.Merge(fromEnv())
	cfg.DataPath = sanitizePath(cfg.DataPath)
	cfg.CacheDBPath = sanitizePath(cfg.CacheDBPath)
	return cfg, nil
}

// Merge returns a copy of c with every non-zero field of override applied
// on top, the same "other wins if set" rule rule.HTTPConfig.Merge uses.
func (c Config) Merge(override Config) Config {
	out := c
	if override.ListenAddr != "" {
		out.ListenAddr = override.ListenAddr
	}
	if override.DataPath != "" {
		out.DataPath = override.DataPath
	}
	if override.CacheBackend != "" {
		out.CacheBackend = override.CacheBackend
	}
	if override.CacheDBPath != "" {
		out.CacheDBPath = override.CacheDBPath
	}
	if override.MaxConcurrent != 0 {
		out.MaxConcurrent = override.MaxConcurrent
	}
	out.DefaultHTTP = out.DefaultHTTP.Merge(override.DefaultHTTP)
	return out
}

// Save writes cfg to path as indented JSON, mirroring the teacher's own
// SaveConfig helper.
func Save(cfg Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func fromEnv() Config {
	var env Config
	if v := os.Getenv("CRAWLKIT_LISTEN_ADDR"); v != "" {
		env.ListenAddr = v
	}
	if v := os.Getenv("CRAWLKIT_DATA_PATH"); v != "" {
		env.DataPath = v
	}
	if v := os.Getenv("CRAWLKIT_CACHE_BACKEND"); v != "" {
		env.CacheBackend = CacheBackend(v)
	}
	if v := os.Getenv("CRAWLKIT_CACHE_DB_PATH"); v != "" {
		env.CacheDBPath = v
	}
	if v := os.Getenv("CRAWLKIT_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			env.MaxConcurrent = n
		}
	}
	if v := os.Getenv("CRAWLKIT_USER_AGENT"); v != "" {
		env.DefaultHTTP.UserAgent = &v
	}
	return env
}

func sanitizePath(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Clean(path)
}
