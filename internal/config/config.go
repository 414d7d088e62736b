package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver       string // "sqlite" or "postgres"
	DBPath         string
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
	DashboardPort  string // empty disables the dashboard API
	DefaultProduct string
	LogPath        string
	ScreenshotDir  string
	Headless       bool

	// Pacing knobs and follow-up windows.
	ReceiveWindow    time.Duration
	CyclePause       time.Duration
	ContactPause     time.Duration
	ErrorPause       time.Duration
	FollowUpInterval time.Duration
	IdleGrace        time.Duration
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", "./whatsapp_sales.db"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "whatsapp_sales"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DashboardPort:  getEnv("DASHBOARD_PORT", ""),
		DefaultProduct: getEnv("DEFAULT_PRODUCT", "Ebook de Marketing Digital"),
		LogPath:        getEnv("LOG_PATH", "sales_bot.log"),
		ScreenshotDir:  getEnv("SCREENSHOT_DIR", "."),
		Headless:       getEnvBool("HEADLESS", false),

		ReceiveWindow:    getEnvDuration("RECEIVE_WINDOW", 120*time.Second),
		CyclePause:       getEnvDuration("CYCLE_PAUSE", 10*time.Second),
		ContactPause:     getEnvDuration("CONTACT_PAUSE", 7*time.Second),
		ErrorPause:       getEnvDuration("ERROR_PAUSE", 15*time.Second),
		FollowUpInterval: getEnvDuration("FOLLOWUP_INTERVAL", 48*time.Hour),
		IdleGrace:        getEnvDuration("IDLE_GRACE", 48*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
