// Package config loads the .pwclientrc connection profiles. The core
// pipeline never reads this; profiles are passed explicitly into the
// remote client constructor.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tailscale/hujson"
)

var (
	// ErrConfigFileNotFound means an explicitly given config path
	// does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")

	// ErrConfigInvalid wraps parse and validation failures.
	ErrConfigInvalid = errors.New("invalid config file")

	// ErrNoConfig means no config file was found anywhere.
	ErrNoConfig = errors.New("no config file found (create ~/.pwclientrc or pass --config)")

	// ErrUnknownProject means the selected project has no profile.
	ErrUnknownProject = errors.New("no profile for project")

	// ErrNoProject means neither --project nor default_project named
	// a project.
	ErrNoProject = errors.New("no project selected (pass --project or set default_project)")
)

// RCFileName is the legacy config file in the home directory.
const RCFileName = ".pwclientrc"

// Profile holds the connection parameters for one project's server.
type Profile struct {
	URL      string `json:"url"                validate:"required,url"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

// Config is the parsed configuration file. Files are JSONC; comments
// and trailing commas are allowed.
type Config struct {
	DefaultProject string             `json:"default_project,omitempty"`
	Projects       map[string]Profile `json:"projects" validate:"required,dive"`

	// MaxPages caps pagination per listing; zero uses the built-in
	// default.
	MaxPages int `json:"max_pages,omitempty" validate:"min=0"`

	// Source is the path the config was loaded from (diagnostics).
	Source string `json:"-"`
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	ConfigPath string            // --config flag value; empty means search
	Env        map[string]string // environment variables
}

// Load reads and validates the configuration. Search order when no
// explicit path is given: $XDG_CONFIG_HOME/pwcli/config.json,
// ~/.config/pwcli/config.json, ~/.pwclientrc. The first existing file
// wins; files are not merged, a profile belongs to exactly one file.
func Load(input LoadInput) (Config, error) {
	path := input.ConfigPath
	if path == "" {
		path = findConfigFile(input.Env)
		if path == "" {
			return Config{}, ErrNoConfig
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	cfg.Source = path

	return cfg, nil
}

// Profile selects the profile for the given project, falling back to
// DefaultProject when project is empty.
func (c Config) Profile(project string) (string, Profile, error) {
	if project == "" {
		project = c.DefaultProject
	}

	if project == "" {
		return "", Profile{}, ErrNoProject
	}

	profile, ok := c.Projects[project]
	if !ok {
		return "", Profile{}, fmt.Errorf("%w: %q", ErrUnknownProject, project)
	}

	return project, profile, nil
}

func findConfigFile(env map[string]string) string {
	var candidates []string

	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "pwcli", "config.json"))
	}

	if home := env["HOME"]; home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "pwcli", "config.json"),
			filepath.Join(home, RCFileName),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func parse(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate runs struct-tag validation and flattens the field errors
// into one readable message.
func validate(cfg Config) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		if cfg.DefaultProject != "" {
			if _, ok := cfg.Projects[cfg.DefaultProject]; !ok {
				return fmt.Errorf("default_project %q has no profile", cfg.DefaultProject)
			}
		}

		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}

	return errors.New(strings.Join(msgs, "; "))
}
