package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
)

// Language is a supported chatbot language code.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwahili Language = "sw"
)

// Config is the top-level kipesa configuration, corresponding to kipesa.yml.
type Config struct {
	Port           int      `yaml:"port" koanf:"port"`
	DataDir        string   `yaml:"data_dir" koanf:"data_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`

	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`

	MaxTokens         int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	PresencePenalty   float64 `yaml:"presence_penalty" koanf:"presence_penalty"`
	FrequencyPenalty  float64 `yaml:"frequency_penalty" koanf:"frequency_penalty"`
	LLMTimeoutSeconds int     `yaml:"llm_timeout_seconds" koanf:"llm_timeout_seconds"`
	LLMRateLimitRPM   int     `yaml:"llm_rate_limit_rpm" koanf:"llm_rate_limit_rpm"`

	EmbeddingModel string `yaml:"embedding_model" koanf:"embedding_model"`
	SemanticSearch bool   `yaml:"semantic_search" koanf:"semantic_search"`

	JWTSecret          string `yaml:"jwt_secret" koanf:"jwt_secret"`
	TokenExpiryMinutes int    `yaml:"token_expiry_minutes" koanf:"token_expiry_minutes"`

	MaxHistory          int `yaml:"max_history" koanf:"max_history"`
	AuthRateLimitPerMin int `yaml:"auth_rate_limit_per_min" koanf:"auth_rate_limit_per_min"`

	ConversationTTLSeconds int `yaml:"conversation_ttl_seconds" koanf:"conversation_ttl_seconds"`
	KnowledgeTTLSeconds    int `yaml:"knowledge_ttl_seconds" koanf:"knowledge_ttl_seconds"`
	ProfileTTLSeconds      int `yaml:"profile_ttl_seconds" koanf:"profile_ttl_seconds"`
}
