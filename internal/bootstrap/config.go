package bootstrap

import (
	"os"
	"strconv"
)

type Config struct {
	ServerAddr string
	LogLevel   string
	Version    string

	HMACKey []byte

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	DeepgramAPIKey   string
	DeepgramModel    string
	DeepgramLanguage string
	DeepgramBaseURL  string

	FFmpegBinary string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Version:    getEnv("VERSION", "dev"),

		HMACKey: []byte(getEnv("HMAC_KEY", "change-me-in-production")),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		DeepgramAPIKey:   getEnv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:    getEnv("DEEPGRAM_MODEL", "nova-2"),
		DeepgramLanguage: getEnv("DEEPGRAM_LANGUAGE", ""),
		DeepgramBaseURL:  getEnv("DEEPGRAM_BASE_URL", ""),

		FFmpegBinary: getEnv("FFMPEG_BINARY", "ffmpeg"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
