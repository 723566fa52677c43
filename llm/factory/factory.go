// Package factory provides a centralized factory for creating image Provider
// instances by name. It imports the platform sub-packages and maps string
// names to their constructors, keeping the image package free of them.
package factory

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/config"
	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/llm/image/blt"
	"github.com/Waym1ng/imagegen/llm/image/grsai"
	"github.com/Waym1ng/imagegen/types"
)

// NewProviderFromConfig creates a Provider instance based on the provider name.
//
// Supported names: blt, grsai.
func NewProviderFromConfig(name string, cfg image.ProviderConfig, logger *zap.Logger) (image.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(name) {
	case blt.Name:
		return blt.NewProvider(cfg, logger), nil
	case grsai.Name:
		return grsai.NewProvider(cfg, logger), nil
	default:
		return nil, types.Errorf(types.ErrProviderNotFound,
			"unknown provider %q, supported providers: %s", name, strings.Join(SupportedProviders(), ", "))
	}
}

// SupportedProviders returns the built-in provider names in auto-selection order.
func SupportedProviders() []string {
	return []string{blt.Name, grsai.Name}
}

// Prefixes returns the model-name prefixes a built-in provider claims during auto-selection.
func Prefixes(name string) []string {
	switch strings.ToLower(name) {
	case blt.Name:
		return blt.Prefixes
	case grsai.Name:
		return grsai.Prefixes
	}
	return nil
}

// ProviderConfigFor converts the loaded configuration into the provider's config.
func ProviderConfigFor(name string, cfg *config.Config) image.ProviderConfig {
	pc := cfg.BLT
	if strings.EqualFold(name, grsai.Name) {
		pc = cfg.Grsai
	}
	return image.ProviderConfig{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   cfg.Defaults.Model,
		Timeout: cfg.Defaults.Timeout.Duration(),
	}
}

// NewImageRegistry builds a registry with blt registered before grsai, so blt is
// both the first auto-selection candidate and the fallback provider.
func NewImageRegistry(cfg *config.Config, logger *zap.Logger) *image.Registry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := image.NewRegistry()
	for _, name := range SupportedProviders() {
		pc := ProviderConfigFor(name, cfg)
		registry.Register(name, func() (image.Provider, error) {
			return NewProviderFromConfig(name, pc, logger)
		}, Prefixes(name)...)
	}

	logger.Debug("image registry created",
		zap.Strings("providers", registry.List()),
		zap.String("config_source", cfg.Source))
	return registry
}
