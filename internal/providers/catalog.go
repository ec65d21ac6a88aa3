// Package providers assembles the plugin catalogue from configuration.
package providers

import (
	"iris/internal/config"
	"iris/internal/providers/gemini"
	"iris/internal/providers/openai"
	"iris/internal/registry"
)

// Catalogue builds every known plugin from the resolved configuration.
// Plugins with missing credentials are still returned; the registry
// disables them during its probe pass so they show up in status reports
// with a reason instead of silently vanishing.
func Catalogue(cfg *config.Config) []registry.Plugin {
	openaiCfg := openai.Config{
		APIKey:             cfg.Providers.OpenAI.APIKey,
		BaseURL:            cfg.Providers.OpenAI.BaseURL,
		TranscriptionModel: cfg.Providers.OpenAI.TranscriptionModel,
		VisionModel:        cfg.Providers.OpenAI.VisionModel,
		SentimentModel:     cfg.Providers.OpenAI.SentimentModel,
	}
	geminiCfg := gemini.Config{
		APIKey:      cfg.Providers.Gemini.APIKey,
		VisionModel: cfg.Providers.Gemini.VisionModel,
	}
	return []registry.Plugin{
		openai.NewTranscriptionPlugin(openaiCfg),
		openai.NewVisionPlugin(openaiCfg),
		openai.NewSentimentPlugin(openaiCfg),
		gemini.NewDetectionPlugin(geminiCfg),
		gemini.NewOCRPlugin(geminiCfg),
		gemini.NewDescriptionPlugin(geminiCfg),
	}
}
