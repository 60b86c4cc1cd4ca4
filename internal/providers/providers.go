// Package providers wires the configured AI providers into workflow
// controllers.
package providers

import (
	"context"
	"fmt"

	"scriptstudio/internal/infra"
	"scriptstudio/internal/providers/gemini"
	"scriptstudio/internal/providers/prompt"
	"scriptstudio/internal/workflow"
)

// Set holds the providers shared by every controller of a process.
type Set struct {
	Script  workflow.ScriptWriter
	Images  workflow.Illustrator
	Profile prompt.Profile

	cfg    *infra.Config
	logger *infra.Logger
}

// New builds the Gemini adapter and, when configured, the OpenAI script writer.
func New(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Set, error) {
	profile, err := prompt.LoadProfile(cfg.StyleProfilePath)
	if err != nil {
		return nil, err
	}

	gem, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		ScriptModel: cfg.GeminiScriptModel,
		ImageModel:  cfg.GeminiImageModel,
		Profile:     profile,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	set := &Set{Script: gem, Images: gem, Profile: profile, cfg: cfg, logger: logger}
	scriptModel := gem.ScriptModel()

	switch cfg.ScriptProvider {
	case infra.ScriptProviderGemini:
	case infra.ScriptProviderOpenAI:
		writer, err := prompt.NewOpenAIWriter(prompt.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			Profile:      profile,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		set.Script = writer
		scriptModel = writer.Model()
	default:
		return nil, fmt.Errorf("providers: unsupported script provider %q", cfg.ScriptProvider)
	}

	logger.Info().
		Str("script_provider", cfg.ScriptProvider).
		Str("script_model", scriptModel).
		Str("image_model", gem.ImageModel()).
		Str("profile", profile.Name).
		Int("scenes", profile.SceneCount).
		Msg("providers: ready")
	return set, nil
}

// NewController builds a workflow controller using the configured timeouts,
// pacing and default aspect ratio.
func (s *Set) NewController(onChange func(workflow.Snapshot)) (*workflow.Controller, error) {
	return workflow.New(workflow.Options{
		Script:        s.Script,
		Images:        s.Images,
		ScriptTimeout: s.cfg.ScriptTimeout,
		ImageTimeout:  s.cfg.ImageTimeout,
		ImageInterval: s.cfg.ImageMinInterval,
		AspectRatio:   s.cfg.DefaultAspectRatio,
		OnChange:      onChange,
		Logger:        s.logger,
	})
}
