// Package config loads jirasearch settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. JIRASEARCH_* environment variables
//
// The merged result is checked against an embedded CUE schema. Settings are
// read-only: nothing in jirasearch writes them back.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Environment variables that override file settings.
const (
	EnvBaseURL         = "JIRASEARCH_BASE_URL"
	EnvAPIToken        = "JIRASEARCH_API_TOKEN"
	EnvDefaultProjects = "JIRASEARCH_DEFAULT_PROJECTS"
	EnvCachePath       = "JIRASEARCH_CACHE_PATH"
)

const (
	minHTTPTimeout = 3 * time.Second
	maxHTTPTimeout = 30 * time.Second
)

// Config holds the settings of one jirasearch run.
type Config struct {
	// BaseURL is the Jira site, without trailing slash.
	BaseURL string `yaml:"base_url"`
	// APIToken is sent as HTTP Basic credentials.
	APIToken string `yaml:"api_token"`
	// Timeout bounds HTTP requests and issue searches.
	Timeout time.Duration `yaml:"timeout"`
	// MaxResults is the number of issues listed per search.
	MaxResults int `yaml:"max_results"`
	// DefaultProjects are searched when the text names no project.
	DefaultProjects []string `yaml:"default_projects"`

	// CachePath enables the SQLite name-resolution cache when set.
	CachePath string `yaml:"cache_path"`
	// CacheTTL is how long cached resolutions are trusted.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Retries is the number of extra attempts for transient HTTP failures.
	Retries int `yaml:"retries"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:         "https://www.example.com",
		Timeout:         10 * time.Second,
		MaxResults:      10,
		DefaultProjects: []string{},
		CacheTTL:        24 * time.Hour,
		Retries:         2,
	}
}

// HTTPTimeout is Timeout clamped to [3s, 30s].
func (c Config) HTTPTimeout() time.Duration {
	switch {
	case c.Timeout < minHTTPTimeout:
		return minHTTPTimeout
	case c.Timeout > maxHTTPTimeout:
		return maxHTTPTimeout
	default:
		return c.Timeout
	}
}

// SearchTimeout is the deadline for one issue search: Timeout, but at least 3s.
func (c Config) SearchTimeout() time.Duration {
	if c.Timeout < minHTTPTimeout {
		return minHTTPTimeout
	}
	return c.Timeout
}

// Load reads path (if non-empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
// Environment variables are not consulted.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAPIToken); ok {
		c.APIToken = v
	}
	if v, ok := lookup(EnvDefaultProjects); ok {
		c.DefaultProjects = splitList(v)
	}
	if v, ok := lookup(EnvCachePath); ok {
		c.CachePath = strings.TrimSpace(v)
	}
	return nil
}

// splitList splits a comma or whitespace separated list, dropping blanks.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.TrimSpace(f))
	}
	return out
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.DefaultProjects == nil {
		c.DefaultProjects = []string{}
	}
}

// ValidationError lists every schema violation found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks the settings against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c.view()))
	err := value.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var problems []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			msg = path + ": " + msg
		}
		problems = append(problems, msg)
	}
	return &ValidationError{Problems: problems}
}

// view is the schema-facing shape of the config.
func (c Config) view() map[string]any {
	projects := c.DefaultProjects
	if projects == nil {
		projects = []string{}
	}
	return map[string]any{
		"base_url":         c.BaseURL,
		"api_token":        c.APIToken,
		"timeout_ms":       c.Timeout.Milliseconds(),
		"max_results":      c.MaxResults,
		"default_projects": projects,
		"cache_path":       c.CachePath,
		"cache_ttl_ms":     c.CacheTTL.Milliseconds(),
		"retries":          c.Retries,
	}
}

// String renders the config for logs with the token masked.
func (c Config) String() string {
	token := ""
	if c.APIToken != "" {
		token = "***"
	}
	return fmt.Sprintf("base_url=%s token=%s timeout=%s max_results=%d projects=[%s] cache=%q",
		c.BaseURL, token, c.Timeout, c.MaxResults, strings.Join(c.DefaultProjects, ","), c.CachePath)
}
