package upload

import (
	"context"
	"fmt"
	"sort"
)

// ProviderFactory is a function that creates a new provider instance
type ProviderFactory func() Provider

// Registry holds all available upload providers
var Registry = make(map[string]ProviderFactory)

// RegisterProvider registers a new upload provider
func RegisterProvider(name string, factory ProviderFactory) {
	Registry[name] = factory
}

// NewProvider creates a new provider instance by name
func NewProvider(name string) (Provider, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %s", name)
	}
	return factory(), nil
}

// Names lists the registered provider names, sorted
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Setup creates the named provider, configures it and, when it supports
// it, verifies the destination.
func Setup(ctx context.Context, name string, config map[string]any) (Provider, error) {
	provider, err := NewProvider(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload provider: %w", err)
	}
	if err := provider.Configure(config); err != nil {
		return nil, fmt.Errorf("failed to configure upload provider: %w", err)
	}
	if v, ok := provider.(Verifier); ok {
		if err := v.Verify(ctx); err != nil {
			return nil, fmt.Errorf("failed to verify upload provider: %w", err)
		}
	}
	return provider, nil
}

func init() {
	RegisterProvider("minio", func() Provider {
		return NewMinioProvider()
	})
}
