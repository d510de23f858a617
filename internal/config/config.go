package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort       string
	ClientsFilePath  string
	DataDir          string
	MessagePrefix    string
	RequestSizeLimit int64
	QRWaitTimeout    time.Duration
	QRPollInterval   time.Duration
	CleanupInterval  time.Duration
	LogDir           string
}

// NewConfig builds the configuration from the environment. A .env file in
// the working directory is loaded first when present.
func NewConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("PORT", "3001"),
		ClientsFilePath:  getEnv("CLIENTS_FILE_PATH", "./clients.json"),
		DataDir:          getEnv("DATA_DIR", "data"),
		MessagePrefix:    strings.ToLower(getEnv("MESSAGE_PREFIX", "pergunta:")),
		RequestSizeLimit: parseSizeLimit(getEnv("REQUEST_SIZE_LIMIT", "5mb")),
		QRWaitTimeout:    getDurationEnv("QR_WAIT_TIMEOUT", 60*time.Second),
		QRPollInterval:   time.Second,
		CleanupInterval:  getDurationEnv("CLEANUP_INTERVAL", 4*time.Hour),
		LogDir:           getEnv("LOG_DIR", "logs"),
	}
}

// EnsureDataDir ensures the session data directory exists
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// GetCorsConfig returns CORS configuration for the application
func (c *Config) GetCorsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// parseSizeLimit parses values like "5mb", "512kb" or a plain byte count.
// Invalid values fall back to 5mb.
func parseSizeLimit(v string) int64 {
	const fallback = 5 << 20

	v = strings.ToLower(strings.TrimSpace(v))
	mult := int64(1)
	switch {
	case strings.HasSuffix(v, "gb"):
		mult = 1 << 30
		v = strings.TrimSuffix(v, "gb")
	case strings.HasSuffix(v, "mb"):
		mult = 1 << 20
		v = strings.TrimSuffix(v, "mb")
	case strings.HasSuffix(v, "kb"):
		mult = 1 << 10
		v = strings.TrimSuffix(v, "kb")
	case strings.HasSuffix(v, "b"):
		v = strings.TrimSuffix(v, "b")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n * mult
}

// String renders the effective configuration for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("port=%s clients_file=%s data_dir=%s prefix=%q body_limit=%d",
		c.ServerPort, c.ClientsFilePath, c.DataDir, c.MessagePrefix, c.RequestSizeLimit)
}
