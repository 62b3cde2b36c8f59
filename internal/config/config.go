// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Policy   PolicyConfig
	APIKey   string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// PolicyConfig holds the tunable progression policy values. The defaults are
// the product's observed policy; they are configuration, not algorithm.
type PolicyConfig struct {
	MinimumAttempts     int     // attempts required per module before advancement
	ScoreThreshold      float64 // minimum per-module score percentage
	ConversationMinimum int     // minimum conversation messages
	EaseFactorFloor     float64 // SM-2 ease factor lower bound
	MasteryEaseFactor   float64 // ease factor required for mastered status
	MasteryIntervalDays int     // interval required for mastered status
	MasteryRepetitions  int     // successful repetitions required for mastered status
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		// Parse comma-separated origins
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		// If no valid origins found, default to allow all
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// API Key configuration (optional, for service-to-service authentication)
	cfg.APIKey = os.Getenv("API_KEY")

	// Progression policy
	if err := loadPolicy(&cfg.Policy); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadPolicy reads the progression policy values with their defaults
func loadPolicy(p *PolicyConfig) error {
	var err error

	p.MinimumAttempts, err = intEnv("POLICY_MINIMUM_ATTEMPTS", 10)
	if err != nil {
		return err
	}

	p.ScoreThreshold, err = floatEnv("POLICY_SCORE_THRESHOLD", 85.0)
	if err != nil {
		return err
	}

	p.ConversationMinimum, err = intEnv("POLICY_CONVERSATION_MINIMUM", 20)
	if err != nil {
		return err
	}

	p.EaseFactorFloor, err = floatEnv("POLICY_EASE_FACTOR_FLOOR", 1.3)
	if err != nil {
		return err
	}

	p.MasteryEaseFactor, err = floatEnv("POLICY_MASTERY_EASE_FACTOR", 2.5)
	if err != nil {
		return err
	}

	p.MasteryIntervalDays, err = intEnv("POLICY_MASTERY_INTERVAL_DAYS", 21)
	if err != nil {
		return err
	}

	p.MasteryRepetitions, err = intEnv("POLICY_MASTERY_REPETITIONS", 5)
	if err != nil {
		return err
	}

	return nil
}

// intEnv reads an integer environment variable with a default
func intEnv(name string, def int) (int, error) {
	value := os.Getenv(name)
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

// floatEnv reads a float environment variable with a default
func floatEnv(name string, def float64) (float64, error) {
	value := os.Getenv(name)
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
