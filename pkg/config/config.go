package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	RealtimeChannel         string
	JWTSecret               string
	LogLevel                string
	LogFile                 string
	AllowedOrigins          []string
	MetricsPort             string
	PublicURL               string
	AWSRegion               string
	MailFrom                string
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "nano_social"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RealtimeChannel:         getEnv("REALTIME_CHANNEL", "nano-social:realtime"),
		JWTSecret:               getEnv("JWT_SECRET", "secret"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 getEnv("LOG_FILE", "logs/server.log"),
		AllowedOrigins:          splitList(getEnv("ALLOWED_ORIGINS", "*")),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		PublicURL:               getEnv("PUBLIC_URL", "http://localhost:3000"),
		AWSRegion:               getEnv("AWS_REGION", ""),
		MailFrom:                getEnv("MAIL_FROM", "no-reply@nano-social.local"),
	}
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
