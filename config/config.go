package config

import (
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port            string
	MongoURI        string
	DatabaseName    string
	AlphaVantageKey string
	AlphaVantageURL string
	FrontendOrigin  string
	QuoteCacheTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		DatabaseName:    getEnv("DATABASE_NAME", "mystocks"),
		AlphaVantageKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
		AlphaVantageURL: getEnv("ALPHA_VANTAGE_URL", "https://www.alphavantage.co/query"),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
		QuoteCacheTTL:   getDurationEnv("QUOTE_CACHE_TTL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
