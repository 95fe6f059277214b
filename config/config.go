package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/models"
)

// Config holds the project config values
type Config struct {
	URL                       string
	DatabaseName              string
	BaseURL                   string
	Port                      string
	Env                       string
	JWTSecret                 string
	CloudinaryURL             string
	RequestTimeout            time.Duration
	NotificationDedupSchedule string
}

// New sets up all config related services
func New() *Config {
	// a missing .env file is normal outside local development
	_ = godotenv.Load()

	env := getEnv("ENV", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		zap.S().Warnw("invalid REQUEST_TIMEOUT, falling back to 30s", "error", err)
		timeout = 30 * time.Second
	}

	return &Config{
		URL:                       os.Getenv("DB_URI"),
		DatabaseName:              os.Getenv("DB_NAME"),
		BaseURL:                   os.Getenv("BASE_URL"),
		Port:                      getEnv("PORT", "8080"),
		Env:                       env,
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		CloudinaryURL:             os.Getenv("CLOUDINARY_URL"),
		RequestTimeout:            timeout,
		NotificationDedupSchedule: getEnv("NOTIFICATION_DEDUP_SCHEDULE", "*/15 * * * *"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errText}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}
