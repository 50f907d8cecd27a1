package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"susu-app-go/pkg/logger"
)

type Config struct {
	HTTPPort    string           `yaml:"http_port"`
	Env         string           `yaml:"env"`
	CORSOrigins []string         `yaml:"cors_origins"`
	HTTP        HTTPConfig       `yaml:"http"`
	DB          DBConfig         `yaml:"db"`
	Auth        AuthConfig       `yaml:"auth"`
	Scheduler   SchedulerConfig  `yaml:"scheduler"`
	Groups      GroupsConfig     `yaml:"groups"`
	Dawurobo    DawuroboConfig   `yaml:"dawurobo"`
	Cloudinary  CloudinaryConfig `yaml:"cloudinary"`
	Email       EmailConfig      `yaml:"email"`
	Notify      NotifyConfig     `yaml:"notify"`
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`
}

type DBConfig struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	TimeZone        string        `yaml:"time_zone"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SlowQuery       time.Duration `yaml:"slow_query"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"`
	RememberMeFactor int           `yaml:"remember_me_factor"`
}

// SchedulerConfig drives the payout tick. Timezone decides which calendar
// day counts as "today" for cycle arithmetic.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timezone string        `yaml:"timezone"`
}

type GroupsConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type DawuroboConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	AccessToken   string        `yaml:"access_token"`
	SenderID      string        `yaml:"sender_id"`
	ExpiryMinutes int           `yaml:"expiry_minutes"`
	CodeLength    int           `yaml:"code_length"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type EmailConfig struct {
	FromEmail        string `yaml:"from_email"`
	FromName         string `yaml:"from_name"`
	ResendAPIKey     string `yaml:"resend_api_key"`
	MailerSendAPIKey string `yaml:"mailersend_api_key"`
}

type NotifyConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	Workers      int           `yaml:"workers"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

func defaults() Config {
	return Config{
		HTTPPort:    "8080",
		Env:         "development",
		CORSOrigins: []string{"http://localhost:5173"},
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "susu_app",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			SlowQuery:       200 * time.Millisecond,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			AccessTokenTTL:   60 * time.Minute,
			RefreshTokenTTL:  7 * 24 * time.Hour,
			RememberMeFactor: 30,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: 3 * time.Minute,
			Timezone: "Africa/Accra",
		},
		Groups: GroupsConfig{
			CacheTTL: 30 * time.Second,
		},
		Dawurobo: DawuroboConfig{
			BaseURL:       "https://devs.sms.api.dawurobo.com/v1/otp",
			SenderID:      "Dawurobo",
			ExpiryMinutes: 10,
			CodeLength:    6,
			Timeout:       45 * time.Second,
			MaxAttempts:   2,
		},
		Email: EmailConfig{
			FromEmail: "no-reply@snappx.app",
			FromName:  "SnappX",
		},
		Notify: NotifyConfig{
			QueueSize:    256,
			Workers:      2,
			MaxAttempts:  3,
			RetryBackoff: 2 * time.Second,
			SendTimeout:  10 * time.Second,
		},
	}
}

// Load merges, lowest priority first: built-in defaults, the optional YAML
// file named by CONFIG_FILE, the .env file, and the process environment.
func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	base := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &base); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		log.Info("config: loaded file", "path", path)
	}

	cfg := Config{
		HTTPPort:    getEnv("HTTP_PORT", base.HTTPPort),
		Env:         getEnv("ENV", base.Env),
		CORSOrigins: getEnvList("CORS_ORIGINS", base.CORSOrigins),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: getEnvDuration("HTTP_READ_HEADER_TIMEOUT", base.HTTP.ReadHeaderTimeout),
			ReadTimeout:       getEnvDuration("HTTP_READ_TIMEOUT", base.HTTP.ReadTimeout),
			WriteTimeout:      getEnvDuration("HTTP_WRITE_TIMEOUT", base.HTTP.WriteTimeout),
			IdleTimeout:       getEnvDuration("HTTP_IDLE_TIMEOUT", base.HTTP.IdleTimeout),
			ShutdownTimeout:   getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", base.HTTP.ShutdownTimeout),
			MaxHeaderBytes:    getEnvInt("HTTP_MAX_HEADER_BYTES", base.HTTP.MaxHeaderBytes),
		},
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", base.DB.DSN),
			Host:            getEnv("DB_HOST", base.DB.Host),
			Port:            getEnv("DB_PORT", base.DB.Port),
			User:            getEnv("DB_USER", base.DB.User),
			Password:        getEnv("DB_PASSWORD", base.DB.Password),
			Name:            getEnv("DB_NAME", base.DB.Name),
			SSLMode:         getEnv("DB_SSLMODE", base.DB.SSLMode),
			TimeZone:        getEnv("DB_TIMEZONE", base.DB.TimeZone),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", base.DB.MaxOpenConns),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", base.DB.MaxIdleConns),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", base.DB.ConnMaxLifetime),
			SlowQuery:       getEnvDuration("DB_SLOW_QUERY", base.DB.SlowQuery),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", base.DB.AutoMigrate),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", base.Auth.JWTSecret),
			AccessTokenTTL:   getEnvDuration("JWT_ACCESS_TTL", base.Auth.AccessTokenTTL),
			RefreshTokenTTL:  getEnvDuration("JWT_REFRESH_TTL", base.Auth.RefreshTokenTTL),
			RememberMeFactor: getEnvInt("JWT_REMEMBER_ME_FACTOR", base.Auth.RememberMeFactor),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBool("PAYOUT_SCHEDULER_ENABLED", base.Scheduler.Enabled),
			Interval: getEnvDuration("PAYOUT_TICK_INTERVAL", base.Scheduler.Interval),
			Timezone: getEnv("PAYOUT_TIMEZONE", base.Scheduler.Timezone),
		},
		Groups: GroupsConfig{
			CacheTTL: getEnvDuration("GROUP_CACHE_TTL", base.Groups.CacheTTL),
		},
		Dawurobo: DawuroboConfig{
			BaseURL:       getEnv("DAWUROBO_BASE_URL", base.Dawurobo.BaseURL),
			APIKey:        getEnv("DAWUROBO_API_KEY", base.Dawurobo.APIKey),
			AccessToken:   getEnv("DAWUROBO_ACCESS_TOKEN", base.Dawurobo.AccessToken),
			SenderID:      getEnv("DAWUROBO_SENDER_ID", base.Dawurobo.SenderID),
			ExpiryMinutes: getEnvInt("DAWUROBO_OTP_EXPIRY_MINUTES", base.Dawurobo.ExpiryMinutes),
			CodeLength:    getEnvInt("DAWUROBO_OTP_LENGTH", base.Dawurobo.CodeLength),
			Timeout:       getEnvDuration("DAWUROBO_TIMEOUT", base.Dawurobo.Timeout),
			MaxAttempts:   getEnvInt("DAWUROBO_MAX_ATTEMPTS", base.Dawurobo.MaxAttempts),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", base.Cloudinary.CloudName),
			APIKey:    getEnv("CLOUDINARY_API_KEY", base.Cloudinary.APIKey),
			APISecret: getEnv("CLOUDINARY_API_SECRET", base.Cloudinary.APISecret),
		},
		Email: EmailConfig{
			FromEmail:        getEnv("EMAIL_FROM", base.Email.FromEmail),
			FromName:         getEnv("EMAIL_FROM_NAME", base.Email.FromName),
			ResendAPIKey:     getEnv("RESEND_API_KEY", base.Email.ResendAPIKey),
			MailerSendAPIKey: getEnv("MAILERSEND_API_KEY", base.Email.MailerSendAPIKey),
		},
		Notify: NotifyConfig{
			QueueSize:    getEnvInt("NOTIFY_QUEUE_SIZE", base.Notify.QueueSize),
			Workers:      getEnvInt("NOTIFY_WORKERS", base.Notify.Workers),
			MaxAttempts:  getEnvInt("NOTIFY_MAX_ATTEMPTS", base.Notify.MaxAttempts),
			RetryBackoff: getEnvDuration("NOTIFY_RETRY_BACKOFF", base.Notify.RetryBackoff),
			SendTimeout:  getEnvDuration("NOTIFY_SEND_TIMEOUT", base.Notify.SendTimeout),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Env != "development" {
			return Config{}, fmt.Errorf("JWT_SECRET is required outside development")
		}
		log.Warn("config: JWT_SECRET not set, using development secret")
		cfg.Auth.JWTSecret = "development-only-secret"
	}

	return cfg, nil
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
