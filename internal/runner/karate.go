package runner

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultKarateVersion is reported when the jar does not print a version
const DefaultKarateVersion = "1.4.0"

const unknownVersion = "unknown"

var (
	javaVersionRegex   = regexp.MustCompile(`version "([^"]+)"`)
	karateVersionRegex = regexp.MustCompile(`(?i)version:?\s+([0-9.]+)`)
)

// Engine knows how to invoke the Karate standalone jar
type Engine struct {
	Java string // java executable, defaults to "java"
	Jar  string // path to karate.jar
}

// Options are the per-run settings taken from an execution's config.
type Options struct {
	ConfigDir string
	Threads   int
	Tags      string
	Env       map[string]string
	Timeout   time.Duration
	Verbose   bool
}

func (e Engine) java() string {
	if e.Java == "" {
		return "java"
	}
	return e.Java
}

// Command builds the runner config for running featurePath:
//
//	java -jar <jar> [--configdir dir] [-T threads] [-t tags] <feature>
func (e Engine) Command(featurePath string, opts Options) *Config {
	args := []string{"-jar", e.Jar}
	if opts.ConfigDir != "" {
		args = append(args, "--configdir", opts.ConfigDir)
	}
	if opts.Threads > 1 {
		args = append(args, "-T", strconv.Itoa(opts.Threads))
	}
	if opts.Tags != "" {
		args = append(args, "-t", opts.Tags)
	}
	args = append(args, featurePath)

	return &Config{
		Command: e.java(),
		Args:    args,
		Env:     MergeEnv(os.Environ(), opts.Env),
		Timeout: opts.Timeout,
		Verbose: opts.Verbose,
	}
}

// JavaVersionCommand prints the JVM version (on stderr)
func (e Engine) JavaVersionCommand() *Config {
	return &Config{
		Command: e.java(),
		Args:    []string{"-version"},
		Timeout: 30 * time.Second,
	}
}

// KarateVersionCommand runs the jar without arguments, which prints usage
// including the version banner.
func (e Engine) KarateVersionCommand() *Config {
	return &Config{
		Command: e.java(),
		Args:    []string{"-jar", e.Jar},
		Timeout: 30 * time.Second,
	}
}

// ParseJavaVersion extracts the quoted version from `java -version` output
func ParseJavaVersion(text string) string {
	if m := javaVersionRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return unknownVersion
}

// ParseKarateVersion finds the line mentioning "karate version" and
// returns its version number, or fallback when there is none.
func ParseKarateVersion(text, fallback string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), "karate version") {
			continue
		}
		if m := karateVersionRegex.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
		break
	}
	return fallback
}

// OptionsFromConfig reads the keys of an execution config that affect the
// command line. Unknown keys are ignored here; they still reach
// karate-config.js.
func OptionsFromConfig(cfg map[string]any) (Options, error) {
	var opts Options
	if cfg == nil {
		return opts, nil
	}

	if v, ok := cfg["threads"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return opts, fmt.Errorf("invalid threads: %w", err)
		}
		if n < 1 {
			return opts, fmt.Errorf("invalid threads: must be at least 1, got %d", n)
		}
		opts.Threads = n
	}

	if v, ok := cfg["tags"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return opts, fmt.Errorf("invalid tags: expected string, got %T", v)
		}
		opts.Tags = strings.TrimSpace(s)
	}

	if v, ok := cfg["env"]; ok && v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			return opts, fmt.Errorf("invalid env: expected object, got %T", v)
		}
		opts.Env = make(map[string]string, len(m))
		for k, val := range m {
			opts.Env[k] = fmt.Sprint(val)
		}
	}

	return opts, nil
}

// MergeEnv returns base with the entries of extra added or replaced.
// Keys are applied in sorted order so the result is stable.
func MergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	index := make(map[string]int, len(base))
	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		index[key] = len(env)
		env = append(env, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		kv := k + "=" + extra[k]
		if i, ok := index[k]; ok {
			env[i] = kv
			continue
		}
		env = append(env, kv)
	}
	return env
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
