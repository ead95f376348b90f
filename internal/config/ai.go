package config

import "os"

// AIModels defines which chat-completions models to use for each task
type AIModels struct {
	// Chat drives the interview turn by turn (needs to be fast)
	Chat string `json:"chat" yaml:"chat"`

	// Report writes the nine-section report (quality over speed)
	Report string `json:"report" yaml:"report"`

	// Vision classifies the uploaded palm image
	Vision string `json:"vision" yaml:"vision"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string   `json:"-"` // Never serialize
	Endpoint  string   `json:"endpoint"`
	Models    AIModels `json:"models"`
	TimeoutMS int      `json:"timeoutMs"`

	ChatMaxTokens   int     `json:"chatMaxTokens"`
	ReportMaxTokens int     `json:"reportMaxTokens"`
	Temperature     float64 `json:"temperature"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		Endpoint: getEnv("OPENAI_API_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		Models: AIModels{
			Chat:   getEnv("OPENAI_MODEL_CHAT", "gpt-3.5-turbo"),
			Report: getEnv("OPENAI_MODEL_REPORT", "gpt-4"),
			Vision: getEnv("OPENAI_MODEL_VISION", "gpt-4o-mini"),
		},
		// sized for the report call, which is the slowest
		TimeoutMS:       getEnvInt("AI_TIMEOUT_MS", 30000),
		ChatMaxTokens:   500,
		ReportMaxTokens: 3000,
		Temperature:     0.7,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}
