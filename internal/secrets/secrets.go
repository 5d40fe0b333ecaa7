// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. A key missing from the directory may instead be
// supplied through the environment as DOI_ENRICHER_<KEY>, with dashes turned into
// underscores (crossref-mailto becomes DOI_ENRICHER_CROSSREF_MAILTO).
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported key names.
const (
	CrossrefMailto = "crossref-mailto"
	OpenAlexEmail  = "openalex-email"
	NCBIAPIKey     = "ncbi-api-key"
	ScopusAPIKey   = "scopus-api-key"
	WoSAPIKey      = "wos-api-key"
)

// EnvPrefix is prepended to the upper-cased key name for environment fallback.
const EnvPrefix = "DOI_ENRICHER_"

// Warnings receives messages about unreadable secret files.
var Warnings io.Writer = os.Stderr

// Store holds loaded secrets and falls back to the environment on lookup.
type Store struct {
	values map[string]string
	getenv func(string) string
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(Warnings, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Open loads dir into a Store that consults the process environment for
// keys the directory does not provide.
func Open(dir string) (*Store, error) {
	values, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return &Store{values: values, getenv: os.Getenv}, nil
}

// Get returns the value for key, or "" when neither the directory nor the
// environment supplies it.
func (s *Store) Get(key string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.values[key]; ok {
		return v
	}
	if s.getenv == nil {
		return ""
	}
	return strings.TrimSpace(s.getenv(EnvName(key)))
}

// Keys returns the sorted names of the secrets read from the directory.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
