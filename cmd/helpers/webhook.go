package helpers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zinc-sig/kaas/cmd/config"
	appconfig "github.com/zinc-sig/kaas/internal/config"
	contextparser "github.com/zinc-sig/kaas/internal/context"
	"github.com/zinc-sig/kaas/internal/service"
	"github.com/zinc-sig/kaas/internal/webhook"
)

// WebhookEnvPrefix is the environment prefix for webhook settings
const WebhookEnvPrefix = "KAAS_WEBHOOK"

const (
	defaultWebhookTimeout = 30 * time.Second
	defaultRetryDelay     = 1 * time.Second
	defaultMaxRetries     = 3
	maxRetryDelay         = 30 * time.Second
)

// BuildWebhookConfig builds webhook configuration from all sources
func BuildWebhookConfig(cfg *config.WebhookConfig) (map[string]any, error) {
	// Precedence: env < file < json < kv < direct flags
	result, err := contextparser.BuildContextWithPrefix(
		WebhookEnvPrefix,
		cfg.Config,
		cfg.ConfigKV,
		cfg.ConfigFile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}

	webhookConf, err := contextparser.AsMap(result, "webhook config")
	if err != nil {
		return nil, err
	}

	// Explicit flags win when they differ from their defaults
	if cfg.URL != "" {
		webhookConf["url"] = cfg.URL
	}
	if cfg.Method != "" && cfg.Method != "POST" {
		webhookConf["method"] = cfg.Method
	}
	if cfg.AuthType != "" && cfg.AuthType != webhook.AuthNone {
		webhookConf["auth_type"] = cfg.AuthType
	}
	if cfg.AuthToken != "" {
		webhookConf["auth_token"] = cfg.AuthToken
	}
	if cfg.Timeout != "" && cfg.Timeout != "30s" {
		webhookConf["timeout"] = cfg.Timeout
	}
	if cfg.Retries != defaultMaxRetries {
		webhookConf["retries"] = cfg.Retries
	}
	if cfg.RetryDelay != "" && cfg.RetryDelay != "1s" {
		webhookConf["retry_delay"] = cfg.RetryDelay
	}

	return webhookConf, nil
}

// ParseWebhookConfigToInternal converts the flag sources to webhook client
// settings. It returns nil configs when no URL is configured.
func ParseWebhookConfigToInternal(cfg *config.WebhookConfig) (*webhook.Config, *webhook.RetryConfig, error) {
	configMap, err := BuildWebhookConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	url, _ := configMap["url"].(string)
	if url == "" {
		return nil, nil, nil
	}

	webhookTimeout := defaultWebhookTimeout
	if timeout, ok := configMap["timeout"].(string); ok && timeout != "" {
		webhookTimeout, err = time.ParseDuration(timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
		}
	}

	retryDelay := defaultRetryDelay
	if delay, ok := configMap["retry_delay"].(string); ok && delay != "" {
		retryDelay, err = time.ParseDuration(delay)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
		}
	}

	method, _ := configMap["method"].(string)
	if method == "" {
		method = "POST"
	}

	authType, _ := configMap["auth_type"].(string)
	if authType == "" {
		authType = webhook.AuthNone
	}
	authToken, _ := configMap["auth_token"].(string)

	// JSON numbers arrive as float64, key=value and env values as int
	maxRetries := defaultMaxRetries
	switch r := configMap["retries"].(type) {
	case int:
		maxRetries = r
	case float64:
		maxRetries = int(r)
	}

	webhookConfig := &webhook.Config{
		URL:       url,
		Method:    method,
		Timeout:   webhookTimeout,
		AuthType:  authType,
		AuthToken: authToken,
	}
	if err := webhookConfig.Validate(); err != nil {
		return nil, nil, err
	}

	retryConfig := &webhook.RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: retryDelay,
		MaxDelay:     maxRetryDelay,
		Multiplier:   2.0,
	}

	return webhookConfig, retryConfig, nil
}

// WebhookFromConfig converts the server's webhook section to client
// settings. It returns nil configs when the webhook is disabled.
func WebhookFromConfig(cfg appconfig.Webhook) (*webhook.Config, *webhook.RetryConfig, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}

	webhookConfig := &webhook.Config{
		URL:       cfg.URL,
		Method:    cfg.Method,
		Headers:   cfg.Headers,
		Timeout:   cfg.Timeout,
		AuthType:  cfg.AuthType,
		AuthToken: cfg.AuthToken,
	}
	if err := webhookConfig.Validate(); err != nil {
		return nil, nil, err
	}

	retryConfig := webhook.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryConfig.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retryConfig.InitialDelay = cfg.RetryDelay
	}
	return webhookConfig, retryConfig, nil
}

// NewNotifier returns a webhook client, or nil when webhookConfig is nil
func NewNotifier(webhookConfig *webhook.Config, retryConfig *webhook.RetryConfig, logger *slog.Logger) service.Notifier {
	if webhookConfig == nil {
		return nil
	}
	return webhook.NewClient(webhookConfig, retryConfig, logger)
}
