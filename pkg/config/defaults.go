// Package config provides centralized default values for Magnetiq
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	PublicBaseURL      string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver                 string
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Lead Capture Configuration
	SessionWindowDays int
	TargetIndustries  []string

	// Publication Link Configuration
	LinkValidityDays int
	SweepInterval    time.Duration

	// External Service Timeouts
	FileHostTimeout time.Duration
	ExportTimeout   time.Duration

	// File Host (NextCloud) Configuration
	NextCloudBaseURL  string
	NextCloudUser     string
	NextCloudPassword string

	// CRM Export Configuration
	CRMExportURL string

	// Email Configuration
	EmailFrom     string
	EmailFromName string

	// Auth Configuration
	JWTSecret         string
	AdminPasswordHash string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	PublicBaseURL = getEnvString("PUBLIC_BASE_URL", "http://localhost:8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "magnetiq.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Lead Capture Configuration
	SessionWindowDays = getEnvInt("SESSION_WINDOW_DAYS", 90)
	industries := getEnvString("TARGET_INDUSTRIES", "manufacturing,automotive,financial services,healthcare,energy")
	TargetIndustries = splitAndTrim(industries)

	// Publication Link Configuration
	LinkValidityDays = getEnvInt("LINK_VALIDITY_DAYS", 7)
	SweepInterval = getEnvDuration("SWEEP_INTERVAL", time.Hour)

	// External Service Timeouts
	FileHostTimeout = getEnvDuration("FILEHOST_TIMEOUT", 5*time.Second)
	ExportTimeout = getEnvDuration("EXPORT_TIMEOUT", 2*time.Second)

	// File Host (NextCloud) Configuration
	NextCloudBaseURL = getEnvString("NEXTCLOUD_BASE_URL", "")
	NextCloudUser = getEnvString("NEXTCLOUD_USER", "")
	NextCloudPassword = getEnvString("NEXTCLOUD_PASSWORD", "")

	// CRM Export Configuration
	CRMExportURL = getEnvString("CRM_EXPORT_URL", "")

	// Email Configuration
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@magnetiq.com")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "Magnetiq")

	// Auth Configuration
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
