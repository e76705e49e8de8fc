package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP    HTTPConfig
	Redis   RedisConfig
	DB      DBConfig
	Routing RoutingConfig
}

type HTTPConfig struct {
	Port      string
	RateLimit string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RoutingConfig struct {
	BaseURL string
	APIKey  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		HTTP: HTTPConfig{
			Port:      getEnv("HTTP_PORT", "8080"),
			RateLimit: getEnv("RATE_LIMIT", "60-M"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "pattibytes"),
		},
		Routing: RoutingConfig{
			BaseURL: getEnv("ROUTING_BASE_URL", "https://us1.locationiq.com/v1"),
			APIKey:  getEnv("ROUTING_API_KEY", ""),
		},
	}
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
