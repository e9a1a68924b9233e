package config

import (
	"os"
	"strconv"
)

// Config carries the process configuration, read from the environment
// (after godotenv has loaded any .env file).
type Config struct {
	Port string

	Provider    string // "gemini" or "openai"
	GeminiModel string
	OpenAIModel string

	ConsultWebhookURL string

	CameraDevice int
	CameraWidth  int
	CameraHeight int

	MaxUploadBytes int64
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8888"),

		Provider:    getEnv("ANALYSIS_PROVIDER", "gemini"),
		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o"),

		ConsultWebhookURL: os.Getenv("CONSULT_WEBHOOK_URL"),

		CameraDevice: getEnvInt("CAMERA_DEVICE", 0),
		CameraWidth:  getEnvInt("CAMERA_WIDTH", 1280),
		CameraHeight: getEnvInt("CAMERA_HEIGHT", 720),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) * 1024 * 1024,
	}
}
