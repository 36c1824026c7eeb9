package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App        AppConfig
	DB         DatabaseConfig
	JWT        JWTConfig
	Classifier ClassifierConfig
	Geo        GeoConfig
	Redis      RedisConfig
	Archive    ArchiveConfig
	NATS       NATSConfig
	SMTP       SMTPConfig
	WhatsApp   WhatsAppConfig
	TTS        TTSConfig
	Session    SessionConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver string
	URL    string
	Path   string
}

type JWTConfig struct {
	Secret string
}

type ClassifierConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIURL    string
}

type GeoConfig struct {
	MapsAPIKey   string
	NominatimURL string
	UserAgent    string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	IncidentTTL time.Duration
}

type ArchiveConfig struct {
	Dir       string
	Retention time.Duration
	Schedule  string

	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3Prefix    string
}

type NATSConfig struct {
	URL   string
	Token string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type WhatsAppConfig struct {
	Enabled bool
	Dialect string
	DSN     string
}

type TTSConfig struct {
	APIKey  string
	VoiceID string
	BaseURL string
}

type SessionConfig struct {
	FinalizeGrace time.Duration
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Load reads the process environment. Call godotenv.Load first to pick up a
// local .env file.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		DB: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			URL:    getEnv("DATABASE_URL", ""),
			Path:   getEnv("DB_PATH", "./storage/panic-button.db"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_ACCESS_TOKEN_SECRET", ""),
		},
		Classifier: ClassifierConfig{
			Provider:     strings.ToLower(getEnv("CLASSIFIER_PROVIDER", ProviderGemini)),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", ""),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", ""),
			OpenAIURL:    getEnv("OPENAI_BASE_URL", ""),
		},
		Geo: GeoConfig{
			MapsAPIKey:   getEnv("MAPS_API_KEY", ""),
			NominatimURL: getEnv("NOMINATIM_URL", ""),
			UserAgent:    getEnv("GEOCODER_USER_AGENT", "panic-button/1.0"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			IncidentTTL: getEnvDuration("INCIDENT_TTL", 24*time.Hour),
		},
		Archive: ArchiveConfig{
			Dir:         getEnv("ARCHIVE_DIR", "./storage/archives"),
			Retention:   getEnvDuration("ARCHIVE_RETENTION", 720*time.Hour),
			Schedule:    getEnv("ARCHIVE_RETENTION_SCHEDULE", "@hourly"),
			S3Bucket:    getEnv("AWS_BUCKET_NAME", ""),
			S3Region:    getEnv("AWS_REGION", "us-east-1"),
			S3AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			S3SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Endpoint:  getEnv("AWS_ENDPOINT", ""),
			S3Prefix:    getEnv("AWS_ARCHIVE_PREFIX", "archives/"),
		},
		NATS: NATSConfig{
			URL:   getEnv("NATS_URL", ""),
			Token: getEnv("NATS_TOKEN", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		WhatsApp: WhatsAppConfig{
			Enabled: getEnvBool("WHATSAPP_ENABLED", false),
			Dialect: getEnv("WHATSAPP_DIALECT", "postgres"),
			DSN:     getEnv("WHATSAPP_DSN", ""),
		},
		TTS: TTSConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
			BaseURL: getEnv("ELEVENLABS_BASE_URL", ""),
		},
		Session: SessionConfig{
			FinalizeGrace: getEnvDuration("SESSION_FINALIZE_GRACE", 1500*time.Millisecond),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if port, err := strconv.Atoi(c.App.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid APP_PORT: %q", c.App.Port)
	}

	switch c.DB.Driver {
	case "postgres":
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DB.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_ACCESS_TOKEN_SECRET is required")
	}

	if c.Classifier.Provider != ProviderGemini && c.Classifier.Provider != ProviderOpenAI {
		return fmt.Errorf("unsupported CLASSIFIER_PROVIDER: %s", c.Classifier.Provider)
	}

	if c.WhatsApp.Enabled && c.WhatsApp.DSN == "" {
		return fmt.Errorf("WHATSAPP_DSN is required when WHATSAPP_ENABLED=true")
	}

	if c.Archive.Retention < time.Hour {
		return fmt.Errorf("ARCHIVE_RETENTION must be at least 1 hour")
	}

	if c.Session.FinalizeGrace <= 0 {
		return fmt.Errorf("SESSION_FINALIZE_GRACE must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
