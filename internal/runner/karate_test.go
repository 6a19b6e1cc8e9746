package runner

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestEngineCommand(t *testing.T) {
	engine := Engine{Jar: "/opt/karate/karate.jar"}

	tests := []struct {
		name     string
		opts     Options
		wantArgs []string
	}{
		{
			name:     "feature only",
			wantArgs: []string{"-jar", "/opt/karate/karate.jar", "/tmp/karate-1/temp.feature"},
		},
		{
			name:     "with config dir",
			opts:     Options{ConfigDir: "/tmp/karate-config-1"},
			wantArgs: []string{"-jar", "/opt/karate/karate.jar", "--configdir", "/tmp/karate-config-1", "/tmp/karate-1/temp.feature"},
		},
		{
			name:     "single thread is the default",
			opts:     Options{Threads: 1},
			wantArgs: []string{"-jar", "/opt/karate/karate.jar", "/tmp/karate-1/temp.feature"},
		},
		{
			name: "threads and tags",
			opts: Options{Threads: 4, Tags: "@smoke"},
			wantArgs: []string{
				"-jar", "/opt/karate/karate.jar", "-T", "4", "-t", "@smoke", "/tmp/karate-1/temp.feature",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := engine.Command("/tmp/karate-1/temp.feature", tt.opts)
			if config.Command != "java" {
				t.Errorf("Command = %q, want java", config.Command)
			}
			if !reflect.DeepEqual(config.Args, tt.wantArgs) {
				t.Errorf("Args = %v, want %v", config.Args, tt.wantArgs)
			}
		})
	}
}

func TestEngineCommandEnvAndTimeout(t *testing.T) {
	engine := Engine{Java: "/usr/lib/jvm/bin/java", Jar: "karate.jar"}
	config := engine.Command("temp.feature", Options{
		Env:     map[string]string{"KARATE_ENV": "qa"},
		Timeout: 2 * time.Minute,
	})

	if config.Command != "/usr/lib/jvm/bin/java" {
		t.Errorf("Command = %q, want custom java", config.Command)
	}
	if config.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", config.Timeout)
	}

	found := false
	for _, kv := range config.Env {
		if kv == "KARATE_ENV=qa" {
			found = true
		}
	}
	if !found {
		t.Errorf("Env does not contain KARATE_ENV=qa")
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root"}

	got := MergeEnv(base, map[string]string{"HOME": "/home/kaas", "B": "2", "A": "1"})
	want := []string{"PATH=/bin", "HOME=/home/kaas", "A=1", "B=2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeEnv() = %v, want %v", got, want)
	}

	if got := MergeEnv(base, nil); !reflect.DeepEqual(got, base) {
		t.Errorf("MergeEnv(nil) = %v, want base unchanged", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		want    Options
		wantErr string
	}{
		{
			name: "nil config",
			want: Options{},
		},
		{
			name:   "unknown keys are ignored",
			config: map[string]any{"baseUrl": "http://localhost", "configDir": "/etc/karate"},
			want:   Options{},
		},
		{
			name:   "threads from JSON number",
			config: map[string]any{"threads": float64(3)},
			want:   Options{Threads: 3},
		},
		{
			name:   "threads from key=value inference",
			config: map[string]any{"threads": 2},
			want:   Options{Threads: 2},
		},
		{
			name:   "tags are trimmed",
			config: map[string]any{"tags": " @smoke "},
			want:   Options{Tags: "@smoke"},
		},
		{
			name:   "env values are stringified",
			config: map[string]any{"env": map[string]any{"RETRIES": float64(3), "NAME": "qa"}},
			want:   Options{Env: map[string]string{"RETRIES": "3", "NAME": "qa"}},
		},
		{
			name:    "zero threads",
			config:  map[string]any{"threads": 0},
			wantErr: "at least 1",
		},
		{
			name:    "fractional threads",
			config:  map[string]any{"threads": 1.5},
			wantErr: "invalid threads",
		},
		{
			name:    "tags of wrong type",
			config:  map[string]any{"tags": true},
			wantErr: "invalid tags",
		},
		{
			name:    "env of wrong type",
			config:  map[string]any{"env": "KARATE_ENV=qa"},
			wantErr: "invalid env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionsFromConfig(tt.config)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("OptionsFromConfig() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("OptionsFromConfig() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OptionsFromConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseJavaVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "openjdk",
			output: "openjdk version \"17.0.9\" 2023-10-17\nOpenJDK Runtime Environment (build 17.0.9+9)",
			want:   "17.0.9",
		},
		{
			name:   "legacy oracle",
			output: "java version \"1.8.0_391\"\nJava(TM) SE Runtime Environment",
			want:   "1.8.0_391",
		},
		{
			name:   "no java",
			output: "sh: java: command not found",
			want:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseJavaVersion(tt.output); got != tt.want {
				t.Errorf("ParseJavaVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseKarateVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "banner line",
			output: "12:00:00.000 [main] INFO  com.intuit.karate - Karate version: 1.4.1\nUsage: karate [-hCV]",
			want:   "1.4.1",
		},
		{
			name:   "plain banner",
			output: "karate version 1.5.0\n",
			want:   "1.5.0",
		},
		{
			name:   "no banner",
			output: "Usage: karate [-hCV] [-e=<env>]",
			want:   DefaultKarateVersion,
		},
		{
			name:   "banner without number",
			output: "Karate version unknown",
			want:   DefaultKarateVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseKarateVersion(tt.output, DefaultKarateVersion); got != tt.want {
				t.Errorf("ParseKarateVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}
