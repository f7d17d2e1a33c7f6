// Package llm provides the optional model-backed refinement of heuristic resume records.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for short documents and quick structuring
	TierLite ModelTier = "lite"
	// TierStandard is the default for resume refinement
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long or unusually formatted documents
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one supported.
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for refinement.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	// MaxInputChars bounds the document text sent to the model.
	MaxInputChars int
	// MaxOutputTokens caps the model's answer; zero leaves the model default.
	MaxOutputTokens int32
	// MaxRetries is how many times a rate-limited or failed request is retried.
	MaxRetries int
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:     0.1,
		MaxInputChars:   30000,
		MaxOutputTokens: 8192,
		MaxRetries:      2,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config using model for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
