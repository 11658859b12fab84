package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	LogLevel        string
	LogFile         string
	EnvFile         string
	LLMProvider     string
	GroqAPIKey      string
	GroqAPIURL      string
	Model           string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float64
	SlackBotToken   string
	ContactsCSV     string
	GoogleCredsFile string
	GoogleTokenFile string
	TimeZone        string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	APIToken        string
}

// Load reads configuration from the environment. A .env file, when present,
// fills in variables that are not already set.
func Load() Config {
	envFile := envStr("TASKSCRIBE_ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	return Config{
		Port:            envInt("TASKSCRIBE_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFile:         envStr("LOG_FILE", ""),
		EnvFile:         envFile,
		LLMProvider:     envStr("TASKSCRIBE_LLM_PROVIDER", "groq"),
		GroqAPIKey:      envStr("GROQ_API_KEY", ""),
		GroqAPIURL:      envStr("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		Model:           envStr("TASKSCRIBE_MODEL", "gemma2-9b-it"),
		Temperature:     envFloat("TASKSCRIBE_TEMPERATURE", 0.3),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("TASKSCRIBE_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		SlackBotToken:   envStr("SLACK_BOT_TOKEN", ""),
		ContactsCSV:     envStr("CONTACTS_CSV", "contacts.csv"),
		GoogleCredsFile: envStr("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleTokenFile: envStr("GOOGLE_TOKEN_FILE", "token.json"),
		TimeZone:        envStr("TASKSCRIBE_TIMEZONE", "America/Los_Angeles"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		APIToken:        envStr("TASKSCRIBE_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
