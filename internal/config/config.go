package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "VERIDIAN"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "veridian.db"
	defaultLogLevel      = "info"
	defaultTokenTTLMin   = 60
	defaultAutosaveQuiet = 2 * time.Second
	defaultBlobRegion    = "us-east-1"
	defaultCurrency      = "USD"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	TokenTTL      time.Duration
	AutosaveQuiet time.Duration

	BlobEndpoint  string
	BlobRegion    string
	BlobBucket    string
	BlobAccessKey string
	BlobSecretKey string

	MailEndpoint   string
	MailAPIKey     string
	MailSender     string
	MailAdminInbox string

	PaymentBaseURL  string
	PaymentClientID string
	PaymentSecret   string
	PaymentCurrency string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMin)
	configViper.SetDefault("autosave.quiet_seconds", int(defaultAutosaveQuiet/time.Second))
	configViper.SetDefault("blob.region", defaultBlobRegion)
	configViper.SetDefault("payment.currency", defaultCurrency)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		AutosaveQuiet: time.Duration(configViper.GetInt("autosave.quiet_seconds")) * time.Second,

		BlobEndpoint:  configViper.GetString("blob.endpoint"),
		BlobRegion:    configViper.GetString("blob.region"),
		BlobBucket:    configViper.GetString("blob.bucket"),
		BlobAccessKey: configViper.GetString("blob.access_key"),
		BlobSecretKey: configViper.GetString("blob.secret_key"),

		MailEndpoint:   configViper.GetString("mail.endpoint"),
		MailAPIKey:     configViper.GetString("mail.api_key"),
		MailSender:     configViper.GetString("mail.sender"),
		MailAdminInbox: configViper.GetString("mail.admin_inbox"),

		PaymentBaseURL:  configViper.GetString("payment.base_url"),
		PaymentClientID: configViper.GetString("payment.client_id"),
		PaymentSecret:   configViper.GetString("payment.secret"),
		PaymentCurrency: configViper.GetString("payment.currency"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.BlobBucket) == "" {
		return fmt.Errorf("blob.bucket is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	if c.AutosaveQuiet <= 0 {
		return fmt.Errorf("autosave.quiet_seconds must be positive")
	}
	return nil
}
