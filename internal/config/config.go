package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment at startup.
type Config struct {
	Port              string
	DatabaseDSN       string
	SQLitePath        string // used when DatabaseDSN is empty
	JWTSecret         string
	JWTTTL            time.Duration
	AllowRegistration bool
	CORSOrigins       []string
	RedisAddress      string
	LockTTL           time.Duration
	PhoneRegion       string
	LogLevel          string
	GeminiAPIKey      string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseDSN:       databaseDSN(),
		SQLitePath:        getEnv("SQLITE_PATH", "stock-ledger.db"),
		JWTSecret:         getEnv("JWT_SECRET", "change_me_stock_ledger_secret"),
		JWTTTL:            time.Duration(intFromEnv("JWT_TTL_HOURS", 24)) * time.Hour,
		AllowRegistration: boolFromEnv("ALLOW_REGISTRATION"),
		CORSOrigins:       listFromEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RedisAddress:      strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		LockTTL:           time.Duration(intFromEnv("LOCK_TTL_SECONDS", 30)) * time.Second,
		PhoneRegion:       strings.ToUpper(getEnv("PHONE_REGION", "PK")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
	}
}

// databaseDSN prefers a full DB_DSN and otherwise assembles one from the
// individual DB_* variables.
func databaseDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	if os.Getenv("DB_NAME") == "" {
		return ""
	}

	cfg := mysql.NewConfig()
	cfg.User = os.Getenv("DB_USER")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.ParseTime = true

	host := getEnv("DB_HOST", "localhost")
	// Cloud SQL style unix socket
	if strings.HasPrefix(host, "/") {
		cfg.Net = "unix"
		cfg.Addr = host
	} else {
		cfg.Net = "tcp"
		cfg.Addr = host + ":" + getEnv("DB_PORT", "3306")
	}
	return cfg.FormatDSN()
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func listFromEnv(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
