// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept in the file; the password is read from
// the environment (or a .env file) and never written back.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"supatodo/cli/internal/endpoint"
	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/logging"
	"supatodo/cli/internal/schedule"
	"supatodo/cli/internal/xdg"
)

// Policy decides how an action treats the authentication gate.
type Policy string

const (
	// PolicyRequire skips the action while unauthenticated.
	PolicyRequire Policy = "require"
	// PolicyAttach always issues the action and attaches a token when one exists.
	PolicyAttach Policy = "attach"
)

// Config holds CLI settings.
type Config struct {
	ProjectURL    string `json:"project_url,omitempty"`
	RestURL       string `json:"rest_url"`
	AuthURL       string `json:"auth_url"`
	APIKey        string `json:"api_key"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"-"`
	Resource      string `json:"resource"`
	ReadSchedule  string `json:"read_schedule"`
	WriteSchedule string `json:"write_schedule"`
	ReadPolicy    Policy `json:"read_policy"`
	WritePolicy   Policy `json:"write_policy"`
	Tick          string `json:"tick"`
	LogLevel      string `json:"log_level"`
	TaskText      string `json:"task_text"`
	// MaxRPS caps outgoing REST requests per second; 0 disables the cap.
	MaxRPS float64 `json:"max_requests_per_second,omitempty"`
}

// Default returns the settings for a local Supabase stack.
func Default() Config {
	return Config{
		RestURL:       "http://127.0.0.1:54321/rest/v1",
		AuthURL:       "http://127.0.0.1:54321/auth/v1",
		Resource:      "todos",
		ReadSchedule:  "@every 1s",
		WriteSchedule: "@every 3s",
		ReadPolicy:    PolicyRequire,
		WritePolicy:   PolicyRequire,
		Tick:          "100ms",
		LogLevel:      "info",
		TaskText:      "this is a new task",
	}
}

// Environment variables that override file settings.
const (
	EnvProject  = "SUPATODO_URL"
	EnvRestURL  = "SUPATODO_REST_URL"
	EnvAuthURL  = "SUPATODO_AUTH_URL"
	EnvAPIKey   = "SUPATODO_API_KEY"
	EnvEmail    = "SUPATODO_EMAIL"
	EnvPassword = "SUPATODO_PASSWORD"
	EnvLogLevel = "SUPATODO_LOG_LEVEL"
	EnvMaxRPS   = "SUPATODO_MAX_RPS"
)

// envOverrides mirrors the variables above. Non-string fields are strict so a
// malformed value is reported instead of dropped.
type envOverrides struct {
	Project  string  `env:"SUPATODO_URL"`
	RestURL  string  `env:"SUPATODO_REST_URL"`
	AuthURL  string  `env:"SUPATODO_AUTH_URL"`
	APIKey   string  `env:"SUPATODO_API_KEY"`
	Email    string  `env:"SUPATODO_EMAIL"`
	Password string  `env:"SUPATODO_PASSWORD"`
	LogLevel string  `env:"SUPATODO_LOG_LEVEL"`
	MaxRPS   float64 `env:"SUPATODO_MAX_RPS,strict"`
}

func readEnv() (envOverrides, error) {
	var e envOverrides
	if err := envdecode.Decode(&e); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return e, apperrors.Wrap(apperrors.ConfigInvalid, "environment", err)
	}
	return e, nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file (defaults when missing), then a .env file in the
// working directory, then environment overrides.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p, ".env")
}

// LoadFrom is Load with explicit file locations. An empty or missing envFile is skipped.
// A project URL, when set, replaces rest_url and auth_url from the file;
// SUPATODO_REST_URL and SUPATODO_AUTH_URL still win over it.
func LoadFrom(path, envFile string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, apperrors.Wrap(apperrors.ConfigInvalid, "parse "+path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return c, apperrors.Wrap(apperrors.ConfigInvalid, "load "+envFile, err)
		}
	}
	env, err := readEnv()
	if err != nil {
		return c, err
	}
	if env.Project != "" {
		c.ProjectURL = env.Project
	}
	if c.ProjectURL != "" {
		ep, err := endpoint.Resolve(c.ProjectURL)
		if err != nil {
			return c, apperrors.Wrap(apperrors.ConfigInvalid, "project_url", err)
		}
		c.RestURL, c.AuthURL = ep.RestURL, ep.AuthURL
	}
	c.applyEnv(env)
	c.fillDefaults()
	return c, nil
}

func (c *Config) applyEnv(e envOverrides) {
	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&c.RestURL, e.RestURL},
		{&c.AuthURL, e.AuthURL},
		{&c.APIKey, e.APIKey},
		{&c.Email, e.Email},
		{&c.Password, e.Password},
		{&c.LogLevel, e.LogLevel},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if e.MaxRPS > 0 {
		c.MaxRPS = e.MaxRPS
	}
}

// fillDefaults restores defaults for fields a partial config file left empty.
func (c *Config) fillDefaults() {
	d := Default()
	for _, f := range []struct{ v, def *string }{
		{&c.RestURL, &d.RestURL},
		{&c.AuthURL, &d.AuthURL},
		{&c.Resource, &d.Resource},
		{&c.ReadSchedule, &d.ReadSchedule},
		{&c.WriteSchedule, &d.WriteSchedule},
		{&c.Tick, &d.Tick},
		{&c.TaskText, &d.TaskText},
	} {
		if strings.TrimSpace(*f.v) == "" {
			*f.v = *f.def
		}
	}
	if c.ReadPolicy == "" {
		c.ReadPolicy = d.ReadPolicy
	}
	if c.WritePolicy == "" {
		c.WritePolicy = d.WritePolicy
	}
}

// Validate reports every unusable setting at once.
func (c Config) Validate() error {
	var errs []error
	add := func(field string, err error) {
		errs = append(errs, apperrors.Wrap(apperrors.ConfigInvalid, field, err))
	}
	for field, raw := range map[string]string{"rest_url": c.RestURL, "auth_url": c.AuthURL} {
		u, err := url.Parse(raw)
		if err != nil {
			add(field, err)
			continue
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field, fmt.Errorf("want an absolute http(s) URL, got %q", raw))
		}
	}
	if strings.TrimSpace(c.Resource) == "" {
		add("resource", errors.New("must not be empty"))
	}
	if _, err := schedule.ParseSchedule(c.ReadSchedule); err != nil {
		add("read_schedule", err)
	}
	if _, err := schedule.ParseSchedule(c.WriteSchedule); err != nil {
		add("write_schedule", err)
	}
	if c.ReadPolicy != PolicyRequire && c.ReadPolicy != PolicyAttach {
		add("read_policy", fmt.Errorf("want require or attach, got %q", c.ReadPolicy))
	}
	if c.WritePolicy != PolicyRequire {
		add("write_policy", fmt.Errorf("inserts need an owner; only %q is allowed, got %q", PolicyRequire, c.WritePolicy))
	}
	if d, err := time.ParseDuration(c.Tick); err != nil || d <= 0 {
		add("tick", fmt.Errorf("want a positive duration, got %q", c.Tick))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		add("log_level", err)
	}
	if c.MaxRPS < 0 {
		add("max_requests_per_second", fmt.Errorf("must not be negative, got %v", c.MaxRPS))
	}
	return errors.Join(errs...)
}

// TickInterval returns the parsed tick; call Validate first.
func (c Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Tick)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(p, c)
}

// SaveTo writes c to path with 0600 permissions.
func SaveTo(path string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
