// Package config resolves console settings from defaults, a YAML
// file, .env files and the process environment, in that order of
// increasing precedence. Command-line flags are applied last by
// the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"digital.vasic.testconsole/pkg/env"
)

// Defaults.
const (
	DefaultBackendURL   = "http://127.0.0.1:8000"
	DefaultListenAddr   = "127.0.0.1:8088"
	DefaultLogsDir      = "logs"
	DefaultArtifactsDir = "artifacts"
)

// Config holds the console settings.
type Config struct {
	// BackendURL is the origin of the test backend.
	BackendURL string `yaml:"backend_url" json:"backend_url"`

	// RequestTimeout bounds each backend request. Zero means no
	// timeout: a slow backend keeps the controls disabled.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// LogsDir receives console.log and the API request and
	// response logs. Empty disables file logging.
	LogsDir string `yaml:"logs_dir" json:"logs_dir"`

	// Verbose enables debug output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// ListenAddr is the web console address.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// APIToken is sent as a bearer token when set.
	APIToken string `yaml:"api_token" json:"api_token,omitempty"`

	// ArtifactsDir is where downloaded screenshots and logs go.
	ArtifactsDir string `yaml:"artifacts_dir" json:"artifacts_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BackendURL:   DefaultBackendURL,
		LogsDir:      DefaultLogsDir,
		ListenAddr:   DefaultListenAddr,
		ArtifactsDir: DefaultArtifactsDir,
	}
}

// LoadFile overlays the YAML file at path onto c. Unknown keys
// are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays variables resolved by loader. Names are
// looked up without the loader's prefix, e.g. "BACKEND_URL".
func (c *Config) ApplyEnv(loader env.Loader) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := loader.Lookup(name); ok {
			*dst = v
		}
	}
	str("BACKEND_URL", &c.BackendURL)
	str("LOGS_DIR", &c.LogsDir)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("API_TOKEN", &c.APIToken)
	str("ARTIFACTS_DIR", &c.ArtifactsDir)

	if v, ok := loader.Lookup("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		} else {
			c.RequestTimeout = d
		}
	}
	if v, ok := loader.Lookup("VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("VERBOSE: %w", err))
		} else {
			c.Verbose = b
		}
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BackendURL); err != nil {
		errs = append(errs, fmt.Errorf("backend_url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend_url: %q is not an http(s) origin", c.BackendURL))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout: must not be negative, got %s", c.RequestTimeout))
	}
	if c.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			errs = append(errs, fmt.Errorf("listen_addr: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	c.BackendURL = env.RedactURL(c.BackendURL)
	c.APIToken = env.RedactToken(c.APIToken)
	return c
}

// Options selects the sources read by Load.
type Options struct {
	// File is an optional YAML config file.
	File string
	// EnvFiles are .env files loaded when present.
	EnvFiles []string
	// Loader resolves environment variables. Nil means a new
	// env.DefaultLoader.
	Loader *env.DefaultLoader
}

// Load builds a validated Config from defaults, opts.File, the
// env files and the process environment.
func Load(opts Options) (Config, error) {
	cfg := Default()
	if opts.File != "" {
		if err := cfg.LoadFile(opts.File); err != nil {
			return cfg, err
		}
	}

	loader := opts.Loader
	if loader == nil {
		loader = env.NewLoader()
	}
	for _, f := range opts.EnvFiles {
		if _, err := loader.LoadIfExists(f); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(loader); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, cfg.Validate()
}
