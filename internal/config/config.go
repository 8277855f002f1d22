package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

// Config holds runtime configuration shared across the application.
// It is built once at startup and passed by value afterwards.
type Config struct {
	Addr            string
	Credentials     domain.ProviderCredentials
	AccountsBaseURL string
	SheetBaseURL    string
	ZohoTimeout     time.Duration
	Timezone        string
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
}

// LoadDotEnv populates the environment from path. A missing file is only
// tolerated when required is false. Variables already set in the
// environment win.
func LoadDotEnv(path string, required bool) error {
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads environment variables and returns a fully populated Config.
// Missing credentials are not an error here; they are reported per request.
func Load() Config {
	zohoTimeout := 15 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ZOHO_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			zohoTimeout = parsed
		}
	}

	addr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if addr == "" {
		addr = ":" + envOrDefault("PORT", "3000")
	}

	return Config{
		Addr: addr,
		Credentials: domain.ProviderCredentials{
			ClientID:      strings.TrimSpace(os.Getenv("ZOHO_CLIENT_ID")),
			ClientSecret:  strings.TrimSpace(os.Getenv("ZOHO_CLIENT_SECRET")),
			RefreshToken:  strings.TrimSpace(os.Getenv("ZOHO_REFRESH_TOKEN")),
			WorkbookID:    strings.TrimSpace(os.Getenv("ZOHO_WORKBOOK_ID")),
			WorksheetName: envOrDefault("ZOHO_WORKSHEET_NAME", domain.DefaultWorksheetName),
			DataCenter:    envOrDefault("ZOHO_DC", domain.DefaultDataCenter),
		},
		AccountsBaseURL: strings.TrimSpace(os.Getenv("ZOHO_ACCOUNTS_URL")),
		SheetBaseURL:    strings.TrimSpace(os.Getenv("ZOHO_SHEET_URL")),
		ZohoTimeout:     zohoTimeout,
		Timezone:        envOrDefault("TIMEZONE", "Local"),
		AllowedOrigins:  parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
