package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zinc-sig/kaas/cmd/config"
	contextparser "github.com/zinc-sig/kaas/internal/context"
)

// ParseTimeout parses and validates a timeout duration string
func ParseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 0, nil
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout duration: %w", err)
	}

	if timeout <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}

	return timeout, nil
}

// BuildKarateConfig builds the Karate config bag from environment, file,
// JSON and key=value flags, then applies --threads, --tags and --env on top.
func BuildKarateConfig(cfg *config.KarateConfig) (map[string]any, error) {
	karateConf, err := contextparser.BuildKarateConfig(cfg.JSON, cfg.KV, cfg.File)
	if err != nil {
		return nil, err
	}
	if karateConf == nil {
		karateConf = make(map[string]any)
	}

	if cfg.Threads != 0 {
		karateConf["threads"] = cfg.Threads
	}
	if cfg.Tags != "" {
		karateConf["tags"] = cfg.Tags
	}
	if len(cfg.Env) > 0 {
		env, _ := karateConf["env"].(map[string]any)
		if env == nil {
			env = make(map[string]any, len(cfg.Env))
		}
		for _, kv := range cfg.Env {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("invalid env %q, expected KEY=VALUE", kv)
			}
			env[strings.TrimSpace(key)] = value
		}
		karateConf["env"] = env
	}

	if len(karateConf) == 0 {
		return nil, nil
	}
	return karateConf, nil
}

// ReadInput reads a file, or stdin when path is "-"
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
