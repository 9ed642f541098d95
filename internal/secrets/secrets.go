// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. A .env file can supply the same keys through
// environment-style names.
//
// Supported key files: gemini-api-key, anthropic-api-key, access-code.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secret key names.
const (
	KeyGemini     = "gemini-api-key"
	KeyAnthropic  = "anthropic-api-key"
	KeyAccessCode = "access-code"
)

// envNames maps .env variable names to secret keys. API_KEY is the name the
// court's earlier deployments used for the Gemini key.
var envNames = map[string]string{
	"GEMINI_API_KEY":         KeyGemini,
	"API_KEY":                KeyGemini,
	"ANTHROPIC_API_KEY":      KeyAnthropic,
	"CITACIONES_ACCESS_CODE": KeyAccessCode,
}

// known lists the keys the CLI reads. Other files in the directory are
// loaded but reported at debug level.
var known = map[string]bool{
	KeyGemini:     true,
	KeyAnthropic:  true,
	KeyAccessCode: true,
}

// Load returns the secrets stored as files in dir. The key is the lowercased
// file name without a .txt extension; the value is the trimmed contents.
// A missing dir yields an empty map. Hidden files, empty files and
// subdirectories are ignored, and an unreadable file is skipped with a warning.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return map[string]string{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(e.Name(), ".txt"))

		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("could not read secret", "key", key, "error", err)
			continue
		}
		v := strings.TrimSpace(string(raw))
		if v == "" {
			continue
		}
		if !known[key] {
			slog.Debug("unused secret file", "key", key)
		}
		out[key] = v
	}
	return out, nil
}

// LoadEnvFile reads a .env file and returns the secrets it names. A missing
// file is not an error.
func LoadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	secrets := make(map[string]string)
	for name, key := range envNames {
		if v := strings.TrimSpace(vars[name]); v != "" {
			if _, set := secrets[key]; set && name == "API_KEY" {
				continue
			}
			secrets[key] = v
		}
	}
	return secrets, nil
}

// LoadAll merges the secrets directory over the .env file: a key present in
// both comes from dir.
func LoadAll(dir, envFile string) (map[string]string, error) {
	merged, err := LoadEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	fromDir, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range fromDir {
		merged[k] = v
	}
	return merged, nil
}
