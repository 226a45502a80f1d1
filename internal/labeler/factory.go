package labeler

import (
	"log/slog"

	"github.com/focuspulse/focuspulse/internal/config"
)

// New builds the labeler selected by cfg. Missing credentials degrade to
// Noop with a warning; categorization keeps working from the static sets.
func New(cfg config.EnricherConfig, store Store, logger *slog.Logger) Labeler {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "simulated":
		return NewCached(Simulated{}, store, SimulatedModel, logger)
	case "openai":
		if cfg.APIKey == "" {
			logger.Warn("openai enricher selected but no API key configured; labeling disabled")
			return Noop{}
		}
		return NewCached(NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), store, "openai:"+cfg.Model, logger)
	default:
		return Noop{}
	}
}
