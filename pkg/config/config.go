package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment
type Config struct {
	Port            string
	GinMode         string
	DatabaseURL     string
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
	LogJSON         bool
	LogDebug        bool
	DefaultLimit    int
	MaxLimit        int
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the configuration from the environment, applying defaults.
// A malformed value keeps its default and is reported in the returned error.
func Load() (*Config, error) {
	c := &Config{
		Port:            getenv("PORT", "8000"),
		GinMode:         os.Getenv("GIN_MODE"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DataPath:        getenv("DATA_PATH", "skillmatch.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getenv("ADMIN_PASSWORD", "admin123"),
		DefaultLimit:    20,
		MaxLimit:        100,
	}

	var bad []string
	var err error
	if c.LogJSON, err = getbool("LOG_JSON", false); err != nil {
		bad = append(bad, err.Error())
	}
	if c.LogDebug, err = getbool("LOG_DEBUG", false); err != nil {
		bad = append(bad, err.Error())
	}
	if c.DefaultLimit, err = getint("MATCH_DEFAULT_LIMIT", c.DefaultLimit); err != nil {
		bad = append(bad, err.Error())
	}
	if c.MaxLimit, err = getint("MATCH_MAX_LIMIT", c.MaxLimit); err != nil {
		bad = append(bad, err.Error())
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}

	if len(bad) > 0 {
		return c, fmt.Errorf("invalid configuration: %s", strings.Join(bad, "; "))
	}
	return c, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getbool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
