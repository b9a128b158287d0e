package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	AutoMigrate            bool
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	JWTIssuer              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	LoginMaxAttempts       int
	AccountLockout         time.Duration
	AddressLockout         time.Duration
	NotificationChannel    string
	MailProvider           string
	MailFromName           string
	MailFromAddress        string
	SendGridAPIKey         string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	PhotoMaxBytes          int64
	AnnouncementCacheTTL   time.Duration
	RateLimitMax           int
	RateLimitWindow        time.Duration
	CORSAllowOrigins       string
	BootstrapAdminName     string
	BootstrapAdminReg      string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs locally.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration values from environment variables and optional .env file.
// Variables use the IDVIEW_ prefix, e.g. IDVIEW_DATABASE_URL.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("IDVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GAU ID View API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "sqlite://gau_idview.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("jwt.issuer", "gau-idview")
	v.SetDefault("jwt.access_ttl", "24h")
	v.SetDefault("jwt.refresh_ttl", "720h")
	v.SetDefault("login.max_attempts", 5)
	v.SetDefault("login.account_lockout", "15m")
	v.SetDefault("login.address_lockout", "30m")
	v.SetDefault("notification.channel", "idview:notifications")
	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.from_name", "GAU ID Office")
	v.SetDefault("mail.from_address", "noreply@gau.ac.ke")
	v.SetDefault("cloudinary.folder", "gau/id-photos")
	v.SetDefault("photo.max_bytes", 5*1024*1024)
	v.SetDefault("announcements.cache_ttl", "2m")
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("bootstrap.admin_name", "System Administrator")
	v.SetDefault("bootstrap.admin_reg", "ADM001")
	v.SetDefault("bootstrap.admin_email", "admin@gau.ac.ke")

	durations := map[string]*time.Duration{}
	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 strings.ToLower(v.GetString("app.env")),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		AutoMigrate:            v.GetBool("database.auto_migrate"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		JWTIssuer:              v.GetString("jwt.issuer"),
		LoginMaxAttempts:       v.GetInt("login.max_attempts"),
		NotificationChannel:    v.GetString("notification.channel"),
		MailProvider:           strings.ToLower(v.GetString("mail.provider")),
		MailFromName:           v.GetString("mail.from_name"),
		MailFromAddress:        v.GetString("mail.from_address"),
		SendGridAPIKey:         v.GetString("sendgrid.api_key"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		PhotoMaxBytes:          v.GetInt64("photo.max_bytes"),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		BootstrapAdminName:     v.GetString("bootstrap.admin_name"),
		BootstrapAdminReg:      v.GetString("bootstrap.admin_reg"),
		BootstrapAdminEmail:    v.GetString("bootstrap.admin_email"),
		BootstrapAdminPassword: v.GetString("bootstrap.admin_password"),
	}
	durations["jwt.access_ttl"] = &cfg.AccessTokenTTL
	durations["jwt.refresh_ttl"] = &cfg.RefreshTokenTTL
	durations["login.account_lockout"] = &cfg.AccountLockout
	durations["login.address_lockout"] = &cfg.AddressLockout
	durations["announcements.cache_ttl"] = &cfg.AnnouncementCacheTTL
	durations["rate_limit.window"] = &cfg.RateLimitWindow

	for key, target := range durations {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = parsed
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret
	}
	if cfg.MailProvider == "sendgrid" && cfg.SendGridAPIKey == "" {
		return Config{}, fmt.Errorf("sendgrid api key must be provided when mail provider is sendgrid")
	}
	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = 5
	}

	return cfg, nil
}
