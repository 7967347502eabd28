package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BotToken string
	AdminID  int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	SessionTTLHours int
}

// Load reads configuration from config.env and the environment.
// BOT_TOKEN and ADMIN_ID are required, everything else has defaults.
func Load() (*Config, error) {
	_ = LoadEnvFile("config.env")

	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	adminRaw := strings.TrimSpace(os.Getenv("ADMIN_ID"))
	if adminRaw == "" {
		return nil, fmt.Errorf("ADMIN_ID is not set")
	}
	adminID, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID %q: %v", adminRaw, err)
	}

	host := getEnvDefault("REDIS_HOST", "localhost")
	port := getEnvDefault("REDIS_PORT", "6379")

	return &Config{
		BotToken:        token,
		AdminID:         adminID,
		RedisAddr:       fmt.Sprintf("%s:%s", host, port),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
	}, nil
}

func getEnvDefault(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
