// Package env reads console settings from .env files and the
// process environment. Process variables always win over file
// values.
package env

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultPrefix namespaces every console variable.
const DefaultPrefix = "TESTCONSOLE_"

// Loader resolves configuration variables.
type Loader interface {
	// Load merges variables from a .env file.
	Load(path string) error
	// Get returns the value of a fully-qualified variable.
	Get(key string) string
	// Lookup returns the prefixed variable and whether it is set.
	Lookup(name string) (string, bool)
	// GetRequired returns an error when the variable is empty.
	GetRequired(key string) (string, error)
	// GetWithDefault returns fallback when the variable is empty.
	GetWithDefault(key, fallback string) string
	// Set stores a variable in the loader and the process.
	Set(key, value string) error
	// All returns a copy of the file-loaded variables.
	All() map[string]string
}

// DefaultLoader implements Loader on top of godotenv.
type DefaultLoader struct {
	mu     sync.RWMutex
	prefix string
	vars   map[string]string
	files  []string
}

// NewLoader creates a loader using DefaultPrefix.
func NewLoader() *DefaultLoader {
	return NewLoaderWithPrefix(DefaultPrefix)
}

// NewLoaderWithPrefix creates a loader whose Lookup prepends
// prefix to variable names.
func NewLoaderWithPrefix(prefix string) *DefaultLoader {
	return &DefaultLoader{
		prefix: prefix,
		vars:   make(map[string]string),
	}
}

// Load parses path with godotenv. Later files override earlier
// ones for the same key.
func (l *DefaultLoader) Load(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range vars {
		l.vars[k] = v
	}
	l.files = append(l.files, path)
	return nil
}

// LoadIfExists loads path when it exists and reports whether it
// did.
func (l *DefaultLoader) LoadIfExists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := l.Load(path); err != nil {
		return false, err
	}
	return true, nil
}

func (l *DefaultLoader) Get(key string) string {
	v, _ := l.lookupKey(key)
	return v
}

func (l *DefaultLoader) lookupKey(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vars[key]
	return v, ok && v != ""
}

// Lookup resolves prefix+name, e.g. Lookup("BACKEND_URL") reads
// TESTCONSOLE_BACKEND_URL.
func (l *DefaultLoader) Lookup(name string) (string, bool) {
	return l.lookupKey(l.prefix + strings.ToUpper(name))
}

func (l *DefaultLoader) GetRequired(key string) (string, error) {
	v := l.Get(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}

func (l *DefaultLoader) GetWithDefault(key, fallback string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return fallback
}

func (l *DefaultLoader) Set(key, value string) error {
	l.mu.Lock()
	l.vars[key] = value
	l.mu.Unlock()
	return os.Setenv(key, value)
}

func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		out[k] = v
	}
	return out
}

// Files returns the env files loaded so far, in order.
func (l *DefaultLoader) Files() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.files...)
}
