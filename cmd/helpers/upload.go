package helpers

import (
	"context"
	"fmt"
	"io"

	"github.com/zinc-sig/kaas/cmd/config"
	contextparser "github.com/zinc-sig/kaas/internal/context"
	"github.com/zinc-sig/kaas/internal/service"
	"github.com/zinc-sig/kaas/internal/upload"
)

// UploadEnvPrefix is the environment prefix for upload settings
const UploadEnvPrefix = "KAAS_UPLOAD_CONFIG"

// BuildUploadConfig builds upload configuration from all sources
func BuildUploadConfig(cfg *config.UploadConfig) (map[string]any, error) {
	result, err := contextparser.BuildContextWithPrefix(
		UploadEnvPrefix,
		cfg.Config,
		cfg.ConfigKV,
		cfg.ConfigFile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload config: %w", err)
	}
	return contextparser.AsMap(result, "upload config")
}

// SetupArchiver creates, configures and verifies the named provider and
// wraps it as an archiver. It returns nil when name is empty.
func SetupArchiver(ctx context.Context, name string, uploadConf map[string]any) (service.Archiver, upload.Provider, error) {
	if name == "" {
		return nil, nil, nil
	}

	provider, err := upload.Setup(ctx, name, uploadConf)
	if err != nil {
		return nil, nil, err
	}
	return service.ProviderArchiver{Provider: provider}, provider, nil
}

// PrintUploadInfo prints upload configuration in verbose mode
func PrintUploadInfo(w io.Writer, provider upload.Provider, uploadConf map[string]any) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Upload Configuration")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Provider:       %s\n", provider.Name())

	if provider.Name() == "minio" {
		if endpoint, ok := uploadConf["endpoint"]; ok {
			fmt.Fprintf(w, "Endpoint:       %v\n", endpoint)
		}
		if bucket, ok := uploadConf["bucket"]; ok {
			fmt.Fprintf(w, "Bucket:         %v\n", bucket)
		}
		if prefix, ok := uploadConf["prefix"]; ok && prefix != "" {
			fmt.Fprintf(w, "Prefix:         %v\n", prefix)
		}
	}

	fmt.Fprintf(w, "Artifacts:      <execution-id>/{%s,%s,%s}\n", upload.RawOutputName, upload.ResultName, upload.FeatureName)
	fmt.Fprintln(w, "----------------------------------------")
}
