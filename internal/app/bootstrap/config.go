package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the storefront.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int

	BaseURL    string
	SuccessURL string
	Currency   string

	DownloadTokenSecret string
	DownloadTTL         time.Duration
	WebhookSecret       string
	WebhookTolerance    time.Duration
	OperatorKeyHash     string

	ProductFilesDir    string
	MonthlyTargetCents int64

	DownloadRateLimit  int
	DownloadRateWindow time.Duration

	StripeSecretKey string
	StripeAPIBase   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiAPIBase string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIBase  string

	CollaboratorTimeout  time.Duration
	DeliveryPollInterval time.Duration
	DeliveryBatchSize    int
	DeliveryClaimTTL     time.Duration
	DeliveryMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Storefront struct {
		BaseURL            string `yaml:"base_url"`
		SuccessURL         string `yaml:"success_url"`
		Currency           string `yaml:"currency"`
		ProductFilesDir    string `yaml:"product_files_dir"`
		MonthlyTargetCents int64  `yaml:"monthly_target_cents"`
	} `yaml:"storefront"`
	Stripe struct {
		SecretKey string `yaml:"secret_key"`
		APIBase   string `yaml:"api_base"`
	} `yaml:"stripe"`
	Gemini struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		APIBase string `yaml:"api_base"`
	} `yaml:"gemini"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base"`
	} `yaml:"telegram"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "storefront",
		HTTPPort:             8080,
		GRPCPort:             9090,
		MaxDBConns:           20,
		BaseURL:              "http://localhost:8080",
		Currency:             "eur",
		DownloadTTL:          24 * time.Hour,
		WebhookTolerance:     5 * time.Minute,
		ProductFilesDir:      "product_files",
		MonthlyTargetCents:   100000,
		DownloadRateLimit:    30,
		DownloadRateWindow:   time.Minute,
		StripeAPIBase:        "https://api.stripe.com",
		GeminiModel:          "gemini-1.5-flash",
		SMTPPort:             465,
		CollaboratorTimeout:  15 * time.Second,
		DeliveryPollInterval: 2 * time.Second,
		DeliveryBatchSize:    50,
		DeliveryClaimTTL:     30 * time.Second,
		DeliveryMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Storefront.BaseURL != "" {
			cfg.BaseURL = f.Storefront.BaseURL
		}
		if f.Storefront.SuccessURL != "" {
			cfg.SuccessURL = f.Storefront.SuccessURL
		}
		if f.Storefront.Currency != "" {
			cfg.Currency = f.Storefront.Currency
		}
		if f.Storefront.ProductFilesDir != "" {
			cfg.ProductFilesDir = f.Storefront.ProductFilesDir
		}
		if f.Storefront.MonthlyTargetCents > 0 {
			cfg.MonthlyTargetCents = f.Storefront.MonthlyTargetCents
		}
		if f.Stripe.SecretKey != "" {
			cfg.StripeSecretKey = f.Stripe.SecretKey
		}
		if f.Stripe.APIBase != "" {
			cfg.StripeAPIBase = f.Stripe.APIBase
		}
		if f.Gemini.APIKey != "" {
			cfg.GeminiAPIKey = f.Gemini.APIKey
		}
		if f.Gemini.Model != "" {
			cfg.GeminiModel = f.Gemini.Model
		}
		if f.Gemini.APIBase != "" {
			cfg.GeminiAPIBase = f.Gemini.APIBase
		}
		if f.SMTP.Host != "" {
			cfg.SMTPHost = f.SMTP.Host
		}
		if f.SMTP.Port > 0 {
			cfg.SMTPPort = f.SMTP.Port
		}
		if f.SMTP.Username != "" {
			cfg.SMTPUsername = f.SMTP.Username
		}
		if f.SMTP.Password != "" {
			cfg.SMTPPassword = f.SMTP.Password
		}
		if f.SMTP.From != "" {
			cfg.SMTPFrom = f.SMTP.From
		}
		if f.Telegram.BotToken != "" {
			cfg.TelegramBotToken = f.Telegram.BotToken
		}
		if f.Telegram.ChatID != "" {
			cfg.TelegramChatID = f.Telegram.ChatID
		}
		if f.Telegram.APIBase != "" {
			cfg.TelegramAPIBase = f.Telegram.APIBase
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.BaseURL = envOrDefault("BASE_URL", cfg.BaseURL)
	cfg.SuccessURL = envOrDefault("SUCCESS_URL", cfg.SuccessURL)
	cfg.Currency = envOrDefault("CURRENCY", cfg.Currency)
	cfg.DownloadTokenSecret = envOrDefault("DOWNLOAD_TOKEN_SECRET", cfg.DownloadTokenSecret)
	cfg.WebhookSecret = envOrDefault("STRIPE_WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.OperatorKeyHash = envOrDefault("OPERATOR_KEY_HASH", cfg.OperatorKeyHash)
	cfg.ProductFilesDir = envOrDefault("PRODUCT_FILES_DIR", cfg.ProductFilesDir)
	cfg.StripeSecretKey = envOrDefault("STRIPE_SECRET_KEY", cfg.StripeSecretKey)
	cfg.StripeAPIBase = envOrDefault("STRIPE_API_BASE", cfg.StripeAPIBase)
	cfg.GeminiAPIKey = envOrDefault("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiAPIBase = envOrDefault("GEMINI_API_BASE", cfg.GeminiAPIBase)
	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)
	cfg.TelegramBotToken = envOrDefault("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = envOrDefault("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.TelegramAPIBase = envOrDefault("TELEGRAM_API_BASE", cfg.TelegramAPIBase)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = envInt("DB_MAX_CONNS", cfg.MaxDBConns)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.MonthlyTargetCents = int64(envInt("MONTHLY_TARGET_CENTS", int(cfg.MonthlyTargetCents)))
	cfg.DownloadRateLimit = envInt("DOWNLOAD_RATE_LIMIT", cfg.DownloadRateLimit)

	cfg.DownloadTTL = time.Duration(envInt("DOWNLOAD_TOKEN_TTL_HOURS", int(cfg.DownloadTTL.Hours()))) * time.Hour
	cfg.WebhookTolerance = time.Duration(envInt("WEBHOOK_TOLERANCE_SECONDS", int(cfg.WebhookTolerance.Seconds()))) * time.Second
	cfg.DownloadRateWindow = time.Duration(envInt("DOWNLOAD_RATE_WINDOW_SECONDS", int(cfg.DownloadRateWindow.Seconds()))) * time.Second
	cfg.CollaboratorTimeout = time.Duration(envInt("COLLABORATOR_TIMEOUT_SECONDS", int(cfg.CollaboratorTimeout.Seconds()))) * time.Second
	cfg.DeliveryPollInterval = time.Duration(envInt("DELIVERY_POLL_SECONDS", int(cfg.DeliveryPollInterval.Seconds()))) * time.Second
	cfg.DeliveryBatchSize = envInt("DELIVERY_BATCH_SIZE", cfg.DeliveryBatchSize)
	cfg.DeliveryClaimTTL = time.Duration(envInt("DELIVERY_CLAIM_TTL_SECONDS", int(cfg.DeliveryClaimTTL.Seconds()))) * time.Second
	cfg.DeliveryMaxRetries = envInt("DELIVERY_MAX_RETRIES", cfg.DeliveryMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.DownloadTokenSecret == "" {
		return Config{}, fmt.Errorf("missing DOWNLOAD_TOKEN_SECRET")
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("missing STRIPE_WEBHOOK_SECRET")
	}
	if cfg.OperatorKeyHash == "" {
		return Config{}, fmt.Errorf("missing OPERATOR_KEY_HASH")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
