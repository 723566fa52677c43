// Package imagegen provides a top-level convenience entry point for image
// generation with minimal boilerplate.
//
// Usage:
//
//	import "github.com/Waym1ng/imagegen"
//
//	resp := imagegen.RunSync(map[string]any{"prompt": "a cat", "model": "nano-banana"})
//	resp := imagegen.Run(ctx, map[string]any{"prompt": "a dog", "model": "sora-image"})
//
// The package-level functions share one skill built lazily from the
// configuration found by [config.NewLoader]. Use [New] to build a skill from
// an explicit configuration instead.
package imagegen

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/config"
	"github.com/Waym1ng/imagegen/llm/factory"
	"github.com/Waym1ng/imagegen/skill"
)

// Response is the five-field result returned to callers.
type Response = skill.Response

var (
	defaultOnce  sync.Once
	defaultSkill *skill.Skill
)

// New creates a skill backed by both built-in platforms.
// A nil cfg uses [config.DefaultConfig]; a nil logger disables logging.
func New(cfg *config.Config, logger *zap.Logger, opts ...skill.Option) *skill.Skill {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	base := []skill.Option{
		skill.WithLogger(logger),
		skill.WithDefaultProvider(cfg.Defaults.Provider),
		skill.WithDefaultN(cfg.Defaults.N),
	}
	return skill.New(factory.NewImageRegistry(cfg, logger), append(base, opts...)...)
}

// Default returns the shared skill. The configuration is loaded on first use;
// when loading fails the built-in defaults plus environment are used.
func Default() *skill.Skill {
	defaultOnce.Do(func() {
		cfg, err := config.NewLoader().Load()
		if err != nil {
			cfg, err = config.LoadFromEnv()
			if err != nil {
				cfg = config.DefaultConfig()
			}
		}
		defaultSkill = New(cfg, nil)
	})
	return defaultSkill
}

// Run generates images with the shared skill.
func Run(ctx context.Context, inputs map[string]any) Response {
	return Default().Run(ctx, inputs)
}

// RunSync generates images with the shared skill on a background context.
func RunSync(inputs map[string]any) Response {
	return Default().RunSync(inputs)
}
