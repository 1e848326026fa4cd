package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"

	"daftar/internal/core"
)

type Config struct {
	// HTTP server
	Port     string `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	// Telegram
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	AllowedUserID int64  `env:"ALLOWED_USER_ID"`

	// Language understanding
	LLMProvider  string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL"`

	// Ledger backend selection
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"webhook"`

	// Apps Script webhook
	SheetScriptURL string `env:"SHEET_SCRIPT_URL"`

	// Google Sheets API
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Ledger"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Database
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/daftar.db"`

	// Memory backend seed
	MemorySeedFile string `env:"MEMORY_SEED_FILE"`

	// AMQP events, disabled when AMQP_URL is empty
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"daftar"`
	AMQPQueue    string `env:"AMQP_QUEUE"`

	// Assistant
	DefaultCurrency    string        `env:"DEFAULT_CURRENCY" envDefault:"SAR"`
	Timezone           string        `env:"TIMEZONE" envDefault:"Asia/Riyadh"`
	ExpenseCategories  []string      `env:"EXPENSE_CATEGORIES" envSeparator:","`
	IncomeCategories   []string      `env:"INCOME_CATEGORIES" envSeparator:","`
	ConfirmWrites      bool          `env:"CONFIRM_WRITES" envDefault:"true"`
	MaxPersistAttempts int           `env:"MAX_PERSIST_ATTEMPTS" envDefault:"3"`
	PendingTTL         time.Duration `env:"PENDING_TTL" envDefault:"24h"`
	MaxPendingSessions int           `env:"MAX_PENDING_SESSIONS" envDefault:"1000"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV selects development defaults such as
// text logs.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development") || strings.EqualFold(c.AppEnv, "dev")
}

// Taxonomy builds the category taxonomy, falling back to the built-in labels
// for a kind whose list is empty.
func (c *Config) Taxonomy() (core.Taxonomy, error) {
	expense := trimAll(c.ExpenseCategories)
	if len(expense) == 0 {
		expense = core.DefaultExpenseCategories
	}
	income := trimAll(c.IncomeCategories)
	if len(income) == 0 {
		income = core.DefaultIncomeCategories
	}
	return core.NewTaxonomy(expense, income)
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errors = append(errors, "GEMINI_API_KEY is required when LLM_PROVIDER is gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errors = append(errors, "OPENAI_API_KEY is required when LLM_PROVIDER is openai")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of [gemini openai]", c.LLMProvider))
	}

	validBackends := []string{"webhook", "sheets", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.LedgerBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	switch c.LedgerBackend {
	case "webhook":
		if c.SheetScriptURL == "" {
			errors = append(errors, "SHEET_SCRIPT_URL is required when using webhook backend")
		} else if u, err := url.Parse(c.SheetScriptURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			errors = append(errors, fmt.Sprintf("invalid SHEET_SCRIPT_URL '%s': must be an http(s) URL", c.SheetScriptURL))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "memory":
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("memory seed file does not exist: %s", c.MemorySeedFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(strings.TrimSpace(c.DefaultCurrency)) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter code", c.DefaultCurrency))
	}
	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if _, err := c.Taxonomy(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid categories: %v", err))
	}

	if c.MaxPersistAttempts < 1 || c.MaxPersistAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid max persist attempts %d: must be between 1 and 10", c.MaxPersistAttempts))
	}
	if c.PendingTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid pending TTL %v: must be at least 1 minute", c.PendingTTL))
	}
	if c.MaxPendingSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max pending sessions %d: must be at least 1", c.MaxPendingSessions))
	}
	if c.RequestTimeout < time.Second || c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be between 1 second and 5 minutes", c.RequestTimeout))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
