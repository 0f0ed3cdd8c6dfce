package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/logging"
)

// DefaultLoginRatePerMinute is used when LOGIN_RATE_LIMIT_PER_MINUTE is unset or invalid
const DefaultLoginRatePerMinute = 10

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	SessionSecret       string
	SessionCookieSecure bool

	CloudinaryURL          string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	LoginRatePerMinute int
	// TrustProxy lets the login limiter read X-Forwarded-For and X-Real-IP
	TrustProxy bool
}

// New sets up all config related services
func New() *Config {
	env := os.Getenv("ENV")

	//setup zap logger and replace default logger
	logger, err := logging.New(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                    os.Getenv("DB_URI"),
		DatabaseName:           os.Getenv("DB_NAME"),
		BaseURL:                strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		Port:                   os.Getenv("PORT"),
		Env:                    env,
		SessionSecret:          os.Getenv("SESSION_SECRET"),
		SessionCookieSecure:    parseBool(os.Getenv("SESSION_COOKIE_SECURE")),
		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		LoginRatePerMinute:     parsePositiveInt(os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"), DefaultLoginRatePerMinute),
		TrustProxy:             parseBool(os.Getenv("TRUST_PROXY")),
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func parsePositiveInt(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// errorBody is the failure shape of the response envelope
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The underlying err is logged but never written
// to the client.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if err != nil {
		zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Debugw(message, "status", httpStatusCode)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(errorBody{Success: false, Message: message})
	w.Write(b)
}
