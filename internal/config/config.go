package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Auth struct {
		JWTSecret string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromName   string
	}
	Authority struct {
		WebhookURL   string
		WebhookToken string
		Timeout      time.Duration
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	Composer struct {
		APIKey  string
		BaseURL string
		Model   string
	}
	Tracking struct {
		TTL time.Duration
	}
	Emergency struct {
		CountdownSeconds int
		LocationPoll     time.Duration
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("DATABASE_URL")
	}

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	cfg.Email.SMTPServer = os.Getenv("SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("SMTP_USERNAME")
	cfg.Email.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromName = os.Getenv("SMTP_FROM_NAME")

	cfg.Authority.WebhookURL = os.Getenv("AUTHORITY_WEBHOOK_URL")
	cfg.Authority.WebhookToken = os.Getenv("AUTHORITY_WEBHOOK_TOKEN")
	if ms, err := strconv.Atoi(os.Getenv("AUTHORITY_WEBHOOK_TIMEOUT_MS")); err == nil {
		cfg.Authority.Timeout = time.Duration(ms) * time.Millisecond
	}

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}

	cfg.Composer.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Composer.BaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.Composer.Model = os.Getenv("OPENAI_MODEL")

	if ms, err := strconv.Atoi(os.Getenv("TRACKING_TTL_MS")); err == nil {
		cfg.Tracking.TTL = time.Duration(ms) * time.Millisecond
	}

	if s, err := strconv.Atoi(os.Getenv("COUNTDOWN_SECONDS")); err == nil {
		cfg.Emergency.CountdownSeconds = s
	}
	if ms, err := strconv.Atoi(os.Getenv("LOCATION_POLL_MS")); err == nil {
		cfg.Emergency.LocationPoll = time.Duration(ms) * time.Millisecond
	}

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Authority.Timeout == 0 {
		cfg.Authority.Timeout = 5 * time.Second
	}
	if cfg.Tracking.TTL == 0 {
		cfg.Tracking.TTL = 24 * time.Hour
	}
	if cfg.Emergency.CountdownSeconds == 0 {
		cfg.Emergency.CountdownSeconds = 5
	}
	if cfg.Emergency.LocationPoll == 0 {
		cfg.Emergency.LocationPoll = 10 * time.Second
	}
	if cfg.Composer.Model == "" {
		cfg.Composer.Model = "gpt-4o-mini"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "sos_trigger"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "guardian-service"
	}

	return cfg, nil
}
