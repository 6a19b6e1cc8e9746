// Package context builds configuration bags (Karate config, upload and
// webhook settings) from environment variables, files, JSON strings and
// key=value flags.
package context

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// KarateConfigPrefix is the environment prefix for Karate config values,
// e.g. KAAS_KARATE_CONFIG='{"baseUrl":"..."}' or KAAS_KARATE_CONFIG_BASEURL=...
const KarateConfigPrefix = "KAAS_KARATE_CONFIG"

// ParseKV parses a key=value pair, attempting type inference for the value
func ParseKV(kvPair string) (string, any, error) {
	key, valueStr, ok := strings.Cut(kvPair, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", kvPair)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}

	return key, inferValue(strings.TrimSpace(valueStr)), nil
}

// inferValue tries int, then float, then the literal booleans. Integers go
// first so "1" stays a number.
func inferValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}

// ParseJSON parses a JSON string into a map or other structure
func ParseJSON(jsonStr string) (any, error) {
	var result any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return result, nil
}

// ParseFile reads a JSON file, or a YAML file when the extension is
// .yaml or .yml.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var result any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid YAML in file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid JSON in file: %w", err)
		}
	}
	return result, nil
}

// ParseEnvWithPrefix collects PREFIX (a JSON object) and PREFIX_* variables.
// Suffixes are lower-cased to form keys. Returns nil when nothing is set.
func ParseEnvWithPrefix(prefix string) map[string]any {
	ctx := make(map[string]any)

	if jsonStr := os.Getenv(prefix); jsonStr != "" {
		if parsed, err := ParseJSON(jsonStr); err == nil {
			if m, ok := parsed.(map[string]any); ok {
				maps.Copy(ctx, m)
			}
		}
	}

	envPrefix := prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
		if key == "" {
			continue
		}
		ctx[key] = inferValue(value)
	}

	if len(ctx) == 0 {
		return nil
	}
	return ctx
}

// MergeContexts merges sources left to right; later sources override
// earlier ones key by key. A non-object source is only returned as-is when
// nothing has been merged before it.
func MergeContexts(contexts ...any) any {
	result := make(map[string]any)

	for _, ctx := range contexts {
		if ctx == nil {
			continue
		}

		switch v := ctx.(type) {
		case map[string]any:
			maps.Copy(result, v)
		default:
			if len(result) == 0 {
				return v
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// MergeDeep overlays override onto base, descending into nested objects so
// that e.g. server-side env defaults survive a request that sets only one
// env key. Neither input is modified.
func MergeDeep(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}

	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := result[k].(map[string]any); ok {
				result[k] = MergeDeep(bv, ov)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// AsMap returns v as an object, treating nil as an empty one
func AsMap(v any, what string) (map[string]any, error) {
	if v == nil {
		return make(map[string]any), nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object/map", what)
	}
	return m, nil
}

// BuildContextWithPrefix builds a bag from all sources. Precedence, lowest
// first: environment, file, JSON string, key=value pairs.
func BuildContextWithPrefix(envPrefix, jsonStr string, kvPairs []string, filePath string) (any, error) {
	var contexts []any

	if envCtx := ParseEnvWithPrefix(envPrefix); envCtx != nil {
		contexts = append(contexts, envCtx)
	}

	if filePath != "" {
		fileCtx, err := ParseFile(filePath)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, fileCtx)
	}

	if jsonStr != "" {
		jsonCtx, err := ParseJSON(jsonStr)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, jsonCtx)
	}

	if len(kvPairs) > 0 {
		kvCtx := make(map[string]any)
		for _, kv := range kvPairs {
			key, value, err := ParseKV(kv)
			if err != nil {
				return nil, err
			}
			kvCtx[key] = value
		}
		contexts = append(contexts, kvCtx)
	}

	return MergeContexts(contexts...), nil
}

// BuildKarateConfig builds the Karate config bag for a local run
func BuildKarateConfig(jsonStr string, kvPairs []string, filePath string) (map[string]any, error) {
	ctx, err := BuildContextWithPrefix(KarateConfigPrefix, jsonStr, kvPairs, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to build karate config: %w", err)
	}
	if ctx == nil {
		return nil, nil
	}
	return AsMap(ctx, "karate config")
}
