package config

import "time"

// KarateConfig holds the flags that build the Karate config bag
type KarateConfig struct {
	JSON    string
	KV      []string
	File    string
	Threads int
	Tags    string
	Env     []string // KEY=VALUE pairs exported to the Karate process
}

// EngineConfig holds the flags that locate java and the Karate jar
type EngineConfig struct {
	Java    string
	Jar     string
	WorkDir string
}

// UploadConfig holds upload-related flags
type UploadConfig struct {
	Provider   string
	Config     string
	ConfigKV   []string
	ConfigFile string
}

// CommonFlags holds commonly used flags across commands
type CommonFlags struct {
	Verbose    bool
	DryRun     bool
	TimeoutStr string
	Timeout    time.Duration
	Format     string
}

// WebhookConfig holds webhook-related flags
type WebhookConfig struct {
	// Direct configuration flags
	URL        string
	Method     string // HTTP method (GET, POST, PUT, PATCH, DELETE)
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string

	// Alternative configuration methods
	Config     string   // JSON string configuration
	ConfigKV   []string // Key-value pairs
	ConfigFile string   // Path to JSON config file
}
