package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	xdgAppName = "tasksync"
	configFile = "config.json"

	BackendREST   = "rest"
	BackendGoogle = "google"

	DefaultBaseURL  = "http://localhost:8080"
	DefaultTaskList = "My Tasks"
	DefaultListen   = ":8080"
	DefaultTimeout  = 15 * time.Second
)

type Config struct {
	Backend   string   `json:"backend"`
	BaseURL   string   `json:"base_url"`
	Token     string   `json:"token,omitempty"`
	TaskList  string   `json:"tasklist"`
	Listen    string   `json:"listen"`
	JWTSecret string   `json:"jwt_secret,omitempty"`
	Timeout   Duration `json:"timeout"`
}

// Duration reads and writes time.Duration as a string such as "15s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timeout must be a duration string: %w", err)
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if c.Backend == "" {
		c.Backend = BackendREST
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TaskList == "" {
		c.TaskList = DefaultTaskList
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timeout.Duration <= 0 {
		c.Timeout.Duration = DefaultTimeout
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST, BackendGoogle:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendREST, BackendGoogle)
	}
	return nil
}

// Dir is the directory holding the config file, OAuth files and local state.
func Dir() (string, error) {
	if dir := os.Getenv("TASKSYNC_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file (a missing file yields defaults), then applies
// values from a .env file in the working directory and the environment.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

// LoadFile reads only the JSON file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"TASKSYNC_BACKEND":    &c.Backend,
		"TASKSYNC_BASE_URL":   &c.BaseURL,
		"TASKSYNC_TOKEN":      &c.Token,
		"TASKSYNC_TASKLIST":   &c.TaskList,
		"TASKSYNC_LISTEN":     &c.Listen,
		"TASKSYNC_JWT_SECRET": &c.JWTSecret,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TASKSYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TASKSYNC_TIMEOUT: %w", err)
		}
		c.Timeout.Duration = d
	}
	return nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// Set updates one field by its JSON name.
func (c *Config) Set(key, value string) error {
	switch key {
	case "backend":
		c.Backend = value
	case "base_url":
		c.BaseURL = value
	case "token":
		c.Token = value
	case "tasklist":
		c.TaskList = value
	case "listen":
		c.Listen = value
	case "jwt_secret":
		c.JWTSecret = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		c.Timeout.Duration = d
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}
