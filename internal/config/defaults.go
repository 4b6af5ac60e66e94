package config

// DefaultConfig returns the configuration used when kipesa.yml is absent.
// Generation parameters match the values the chatbot was tuned with.
func DefaultConfig() *Config {
	return &Config{
		Port:    8000,
		DataDir: "data",
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},

		Provider: ProviderOpenAI,
		Model:    "gpt-3.5-turbo",

		MaxTokens:         500,
		Temperature:       0.7,
		PresencePenalty:   0.1,
		FrequencyPenalty:  0.1,
		LLMTimeoutSeconds: 30,
		LLMRateLimitRPM:   60,

		EmbeddingModel: "text-embedding-3-small",
		SemanticSearch: false,

		TokenExpiryMinutes: 30,

		MaxHistory:          10,
		AuthRateLimitPerMin: 5,

		ConversationTTLSeconds: 1800,
		KnowledgeTTLSeconds:    7200,
		ProfileTTLSeconds:      3600,
	}
}
