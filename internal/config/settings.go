package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DBSettings locate the PostgreSQL database.
type DBSettings struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN builds the key/value connection string understood by both pgx and
// lib/pq.
func (d DBSettings) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

// Settings is the whole service configuration.
type Settings struct {
	HTTPAddr string
	DB       DBSettings

	SRID            int
	SnapDistance    float64
	MaxCascadeDepth int
	DEMFile         string
	DEMStep         float64
	DeletePolicy    string

	// CascadeEvents is "local" or "postgres".
	CascadeEvents string
	NotifyChannel string

	LogFile  string
	LogLevel string
}

// Load reads the settings from the environment, after loading a .env file
// when one is present.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	s := &Settings{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DB: DBSettings{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "geotrek"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		DEMFile:       getEnv("DEM_FILE", ""),
		DeletePolicy:  strings.ToLower(getEnv("PATH_DELETE_POLICY", "block")),
		CascadeEvents: strings.ToLower(getEnv("CASCADE_EVENTS", "local")),
		NotifyChannel: getEnv("CASCADE_NOTIFY_CHANNEL", "topology_cascade"),
		LogFile:       getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if s.SRID, err = getInt("SRID", 2154); err != nil {
		return nil, err
	}
	if s.MaxCascadeDepth, err = getInt("CASCADE_MAX_DEPTH", 16); err != nil {
		return nil, err
	}
	if s.SnapDistance, err = getFloat("PATH_SNAPPING_DISTANCE", 1); err != nil {
		return nil, err
	}
	if s.DEMStep, err = getFloat("DEM_SAMPLING_STEP", 25); err != nil {
		return nil, err
	}

	switch s.DeletePolicy {
	case "block", "cascade":
	default:
		return nil, fmt.Errorf("PATH_DELETE_POLICY must be block or cascade, got %q", s.DeletePolicy)
	}
	switch s.CascadeEvents {
	case "local", "postgres":
	default:
		return nil, fmt.Errorf("CASCADE_EVENTS must be local or postgres, got %q", s.CascadeEvents)
	}
	if s.MaxCascadeDepth < 1 {
		return nil, fmt.Errorf("CASCADE_MAX_DEPTH must be positive, got %d", s.MaxCascadeDepth)
	}
	return s, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
