package context

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseKV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue any
		wantErr   bool
	}{
		{"simple string", "baseUrl=http://localhost:8080", "baseUrl", "http://localhost:8080", false},
		{"integer value", "threads=4", "threads", 4, false},
		{"float value", "ratio=0.75", "ratio", 0.75, false},
		{"boolean true", "ssl=true", "ssl", true, false},
		{"boolean false", "retry=false", "retry", false, false},
		{"one stays a number", "flag=1", "flag", 1, false},
		{"value with equals", "query=a=b", "query", "a=b", false},
		{"surrounding spaces trimmed", "  tags = @smoke  ", "tags", "@smoke", false},
		{"empty value", "empty=", "empty", "", false},
		{"missing separator", "novalue", "", nil, true},
		{"empty key", "=value", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := ParseKV(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if key != tt.wantKey {
				t.Errorf("ParseKV() key = %v, want %v", key, tt.wantKey)
			}
			if !reflect.DeepEqual(value, tt.wantValue) {
				t.Errorf("ParseKV() value = %#v, want %#v", value, tt.wantValue)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON(`{"baseUrl":"http://x","env":{"KARATE_ENV":"qa"},"threads":2}`)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	want := map[string]any{
		"baseUrl": "http://x",
		"env":     map[string]any{"KARATE_ENV": "qa"},
		"threads": float64(2),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseJSON() = %v, want %v", got, want)
	}

	if _, err := ParseJSON(`{broken`); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("ParseJSON() error = %v, want invalid JSON", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "karate.json")
	if err := os.WriteFile(jsonPath, []byte(`{"baseUrl":"http://json"}`), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "karate.yaml")
	if err := os.WriteFile(yamlPath, []byte("baseUrl: http://yaml\nenv:\n  KARATE_ENV: qa\nthreads: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`not json`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr string
	}{
		{
			name: "json file",
			path: jsonPath,
			want: map[string]any{"baseUrl": "http://json"},
		},
		{
			name: "yaml file",
			path: yamlPath,
			want: map[string]any{
				"baseUrl": "http://yaml",
				"env":     map[string]any{"KARATE_ENV": "qa"},
				"threads": 3,
			},
		},
		{
			name:    "invalid json",
			path:    badPath,
			wantErr: "invalid JSON in file",
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.json"),
			wantErr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFile(tt.path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseFile() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFile() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseEnvWithPrefix(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    map[string]any
	}{
		{
			name:    "json object",
			envVars: map[string]string{"KAAS_TEST_CFG": `{"baseUrl": "http://env"}`},
			want:    map[string]any{"baseUrl": "http://env"},
		},
		{
			name: "suffixed variables with inference",
			envVars: map[string]string{
				"KAAS_TEST_CFG_THREADS": "2",
				"KAAS_TEST_CFG_SSL":     "true",
				"KAAS_TEST_CFG_NAME":    "qa",
			},
			want: map[string]any{"threads": 2, "ssl": true, "name": "qa"},
		},
		{
			name: "suffixed variables override the json object",
			envVars: map[string]string{
				"KAAS_TEST_CFG":      `{"name": "base", "keep": 1}`,
				"KAAS_TEST_CFG_NAME": "override",
			},
			want: map[string]any{"name": "override", "keep": float64(1)},
		},
		{
			name:    "invalid json is ignored",
			envVars: map[string]string{"KAAS_TEST_CFG": `{invalid}`, "KAAS_TEST_CFG_OK": "yes"},
			want:    map[string]any{"ok": "yes"},
		},
		{
			name:    "nothing set",
			envVars: map[string]string{"KAAS_OTHER": "ignored"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got := ParseEnvWithPrefix("KAAS_TEST_CFG")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEnvWithPrefix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeContexts(t *testing.T) {
	tests := []struct {
		name     string
		contexts []any
		want     any
	}{
		{
			name:     "later values override earlier",
			contexts: []any{map[string]any{"a": 1, "b": 2}, map[string]any{"b": 3, "c": 4}},
			want:     map[string]any{"a": 1, "b": 3, "c": 4},
		},
		{
			name:     "nil contexts ignored",
			contexts: []any{nil, map[string]any{"a": 1}, nil},
			want:     map[string]any{"a": 1},
		},
		{
			name:     "all nil",
			contexts: []any{nil, nil},
			want:     nil,
		},
		{
			name:     "non-map value returned as-is",
			contexts: []any{[]any{"x"}},
			want:     []any{"x"},
		},
		{
			name:     "non-map ignored once maps are present",
			contexts: []any{map[string]any{"a": 1}, "ignored", map[string]any{"b": 2}},
			want:     map[string]any{"a": 1, "b": 2},
		},
		{
			name:     "nested objects are replaced, not merged",
			contexts: []any{map[string]any{"env": map[string]any{"A": "1"}}, map[string]any{"env": map[string]any{"B": "2"}}},
			want:     map[string]any{"env": map[string]any{"B": "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeContexts(tt.contexts...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeContexts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeDeep(t *testing.T) {
	base := map[string]any{
		"baseUrl": "http://defaults",
		"env":     map[string]any{"KARATE_ENV": "dev", "TOKEN": "abc"},
		"threads": 1,
	}
	override := map[string]any{
		"env":     map[string]any{"KARATE_ENV": "qa"},
		"threads": 4,
		"extra":   true,
	}

	got := MergeDeep(base, override)
	want := map[string]any{
		"baseUrl": "http://defaults",
		"env":     map[string]any{"KARATE_ENV": "qa", "TOKEN": "abc"},
		"threads": 4,
		"extra":   true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeDeep() = %v, want %v", got, want)
	}

	if env := base["env"].(map[string]any); env["KARATE_ENV"] != "dev" {
		t.Errorf("MergeDeep() modified base: %v", base)
	}

	if got := MergeDeep(nil, nil); got != nil {
		t.Errorf("MergeDeep(nil, nil) = %v, want nil", got)
	}
	if got := MergeDeep(nil, map[string]any{"a": 1}); !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Errorf("MergeDeep(nil, m) = %v", got)
	}
}

func TestBuildKarateConfig(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "karate.json")
	if err := os.WriteFile(filePath, []byte(`{"baseUrl":"http://file","fromFile":true}`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(KarateConfigPrefix+"_BASEURL", "http://env")
	t.Setenv(KarateConfigPrefix+"_FROMENV", "yes")

	got, err := BuildKarateConfig(`{"baseUrl":"http://json"}`, []string{"threads=2"}, filePath)
	if err != nil {
		t.Fatalf("BuildKarateConfig() error = %v", err)
	}

	want := map[string]any{
		"baseUrl":  "http://json",
		"baseurl":  "http://env",
		"fromenv":  "yes",
		"fromFile": true,
		"threads":  2,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildKarateConfig() = %v, want %v", got, want)
	}
}

func TestBuildKarateConfigErrors(t *testing.T) {
	if _, err := BuildKarateConfig(`[1,2]`, nil, ""); err == nil || !strings.Contains(err.Error(), "must be an object") {
		t.Errorf("BuildKarateConfig() error = %v, want object error", err)
	}
	if _, err := BuildKarateConfig("", []string{"bad"}, ""); err == nil {
		t.Error("BuildKarateConfig() expected error for malformed key=value")
	}

	got, err := BuildKarateConfig("", nil, "")
	if err != nil || got != nil {
		t.Errorf("BuildKarateConfig() = %v, %v; want nil, nil", got, err)
	}
}
