package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	DataDir     string `mapstructure:"DATA_DIR"`

	// Snapshot storage
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DatabaseDSN   string `mapstructure:"DATABASE_DSN"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	// AI providers
	AIProvider         string `mapstructure:"AI_PROVIDER"`
	OpenAIAPIKey       string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel        string `mapstructure:"OPENAI_MODEL"`
	TranscriptionModel string `mapstructure:"TRANSCRIPTION_MODEL"`
	GeminiAPIKey       string `mapstructure:"GEMINI_API_KEY"`
	OllamaBaseURL      string `mapstructure:"OLLAMA_BASE_URL"`
	OllamaModel        string `mapstructure:"OLLAMA_MODEL"`

	// Push and events
	FirebaseCredentials string `mapstructure:"FIREBASE_CREDENTIALS"`
	FCMTopic            string `mapstructure:"FCM_TOPIC"`
	FCMDeviceTokens     string `mapstructure:"FCM_DEVICE_TOKENS"`
	GoogleProjectID     string `mapstructure:"GOOGLE_PROJECT_ID"`
	PubSubTopic         string `mapstructure:"PUBSUB_TOPIC"`
	GoogleCredentials   string `mapstructure:"GOOGLE_CREDENTIALS"`

	// Semantic search
	ChromaAPIKey   string `mapstructure:"CHROMA_API_KEY"`
	ChromaTenant   string `mapstructure:"CHROMA_TENANT"`
	ChromaDatabase string `mapstructure:"CHROMA_DATABASE"`

	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `mapstructure:"JWT_ACCESS_EXPIRY"`
	AuthPasswordHash string        `mapstructure:"AUTH_PASSWORD_HASH"`

	ReminderInterval time.Duration `mapstructure:"REMINDER_INTERVAL"`

	VoiceRecordCmd     string `mapstructure:"VOICE_RECORD_CMD"`
	VoiceRecognizerCmd string `mapstructure:"VOICE_RECOGNIZER_CMD"`
}

var defaults = map[string]interface{}{
	"PORT":                 "8080",
	"ENVIRONMENT":          "development",
	"DATA_DIR":             "data",
	"STORAGE_DRIVER":       "file",
	"DATABASE_DSN":         "",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"LOG_LEVEL":            "info",
	"LOG_FILE":             "",
	"AI_PROVIDER":          "openai",
	"OPENAI_API_KEY":       "",
	"OPENAI_BASE_URL":      "https://api.openai.com/v1",
	"OPENAI_MODEL":         "gpt-4o",
	"TRANSCRIPTION_MODEL":  "whisper-1",
	"GEMINI_API_KEY":       "",
	"OLLAMA_BASE_URL":      "http://localhost:11434",
	"OLLAMA_MODEL":         "llama3",
	"FIREBASE_CREDENTIALS": "",
	"FCM_TOPIC":            "",
	"FCM_DEVICE_TOKENS":    "",
	"GOOGLE_PROJECT_ID":    "",
	"PUBSUB_TOPIC":         "",
	"GOOGLE_CREDENTIALS":   "",
	"CHROMA_API_KEY":       "",
	"CHROMA_TENANT":        "",
	"CHROMA_DATABASE":      "",
	"JWT_SECRET":           "change-me",
	"JWT_ACCESS_EXPIRY":    "24h",
	"AUTH_PASSWORD_HASH":   "",
	"REMINDER_INTERVAL":    "1m",
	"VOICE_RECORD_CMD":     "arecord -q -f S16_LE -r 16000 -c 1 -t wav",
	"VOICE_RECOGNIZER_CMD": "",
}

// Load reads .env, then the optional YAML file at path, then the environment.
// A missing .env or config file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DeviceTokens splits FCM_DEVICE_TOKENS on commas.
func (c *Config) DeviceTokens() []string {
	var tokens []string
	for _, t := range strings.Split(c.FCMDeviceTokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func (c *Config) AuthEnabled() bool {
	return c.AuthPasswordHash != ""
}
