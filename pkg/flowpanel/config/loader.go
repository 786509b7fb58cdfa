package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWPANEL_"

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json, .toml
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	case ".toml":
		return FromTOML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return FromValues(NewValues(m))
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return FromValues(NewValues(m))
}

// FromTOML parses TOML data into a Config.
func FromTOML(data []byte) (Config, error) {
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return Config{}, fmt.Errorf("parse toml: %w", err)
	}
	return FromValues(NewValues(m))
}

// Load reads path when non-empty, otherwise starts from Default, then
// applies environment overrides (see ApplyEnv) and validates the result.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = FromFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv loads envFile into the process environment if it exists (values
// already set in the environment win) and then applies FLOWPANEL_*
// overrides:
//
//	FLOWPANEL_ALLOW_SELF_LOOPS        bool
//	FLOWPANEL_STRICT                  bool
//	FLOWPANEL_SHOW_GLOBAL_PROPERTIES  bool
//	FLOWPANEL_SEARCH_DELAY            duration ("300ms") or seconds
//	FLOWPANEL_PANEL_WIDTH             int
//	FLOWPANEL_PANEL_TAB               string
//	FLOWPANEL_TABLET_MIN              int
//	FLOWPANEL_DESKTOP_MIN             int
//	FLOWPANEL_PREFS_BACKEND           memory|sqlite|redis
//	FLOWPANEL_PREFS_PATH              string
//	FLOWPANEL_PREFS_NAMESPACE         string
//	FLOWPANEL_PREFS_TTL               duration or seconds
//	FLOWPANEL_REDIS_URL               string
//
// Malformed values are reported together; valid ones are still applied.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	var errs []error
	boolVar := func(name string, dst *bool) {
		raw, ok := lookupEnv(name)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}
	intVar := func(name string, dst *int) {
		raw, ok := lookupEnv(name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
	durationVar := func(name string, dst *time.Duration) {
		raw, ok := lookupEnv(name)
		if !ok {
			return
		}
		d, err := parseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
	stringVar := func(name string, dst *string) {
		if raw, ok := lookupEnv(name); ok {
			*dst = raw
		}
	}

	boolVar("ALLOW_SELF_LOOPS", &c.Connections.AllowSelfLoops)
	boolVar("STRICT", &c.Connections.Strict)
	boolVar("SHOW_GLOBAL_PROPERTIES", &c.Panel.ShowGlobalProperties)
	durationVar("SEARCH_DELAY", &c.Panel.SearchDelay)
	intVar("PANEL_WIDTH", &c.Panel.Width)
	stringVar("PANEL_TAB", &c.Panel.Tab)
	intVar("TABLET_MIN", &c.Layout.TabletMin)
	intVar("DESKTOP_MIN", &c.Layout.DesktopMin)
	stringVar("PREFS_BACKEND", &c.Preferences.Backend)
	stringVar("PREFS_PATH", &c.Preferences.Path)
	stringVar("PREFS_NAMESPACE", &c.Preferences.Namespace)
	durationVar("PREFS_TTL", &c.Preferences.TTL)
	stringVar("REDIS_URL", &c.Preferences.RedisURL)

	return errors.Join(errs...)
}

func lookupEnv(name string) (string, bool) {
	raw, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// parseDuration accepts Go duration strings or a number of seconds.
func parseDuration(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
