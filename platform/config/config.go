// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the admin auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetAdminEmail() string
	GetAdminPasswordHash() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// LinkConfig provides public base URLs for bill links.
type LinkConfig interface {
	GetFrontendBaseURL() string
	GetBackendBaseURL() string
}

// CompanyConfig provides company display fields rendered on bills.
type CompanyConfig interface {
	GetCompanyName() string
	GetCompanyLogoURL() string
	GetCompanyGSTIN() string
	GetCompanyBankDetails() string
	GetCompanyUPIID() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSendGridAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// EmailQueueConfig provides settings for the outbound email queue.
type EmailQueueConfig interface {
	GetEmailQueueThrottle() time.Duration
}

// WhatsAppConfig provides settings for the WhatsApp channels.
type WhatsAppConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioWhatsAppFrom() string
	GetMetaAccessToken() string
	GetMetaPhoneNumberID() string
	GetMetaTemplateName() string
	GetMetaTemplateLanguage() string
	GetDefaultCountryPrefix() string
}

// StorageConfig provides settings for S3-compatible object storage.
type StorageConfig interface {
	GetStorageEndpoint() string
	GetStorageAccessKey() string
	GetStorageSecretKey() string
	GetStorageUseSSL() bool
	GetStorageBucketBills() string
	GetStoragePublicBaseURL() string
	GetSignedURLTTL() time.Duration
	IsStorageEnabled() bool
}

// PDFConfig provides settings for bill PDF materialization.
type PDFConfig interface {
	GetPDFFallbackDir() string
}

// RazorpayConfig provides settings for the payment gateway.
type RazorpayConfig interface {
	GetRazorpayKeyID() string
	GetRazorpayKeySecret() string
	GetRazorpayWebhookSecret() string
	IsRazorpayEnabled() bool
}

// RecaptchaConfig provides settings for reCAPTCHA verification.
type RecaptchaConfig interface {
	GetRecaptchaSecret() string
	IsRecaptchaEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	JWTAccessSecret       string
	AccessTokenTTL        time.Duration
	AdminEmail            string
	AdminPasswordHash     string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	FrontendBaseURL       string
	BackendBaseURL        string
	CompanyName           string
	CompanyLogoURL        string
	CompanyGSTIN          string
	CompanyBankDetails    string
	CompanyUPIID          string
	EmailEnabled          bool
	SendGridAPIKey        string
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	EmailQueueThrottle    time.Duration
	TwilioAccountSID      string
	TwilioAuthToken       string
	TwilioWhatsAppFrom    string
	MetaAccessToken       string
	MetaPhoneNumberID     string
	MetaTemplateName      string
	MetaTemplateLanguage  string
	DefaultCountryPrefix  string
	StorageEndpoint       string
	StorageAccessKey      string
	StorageSecretKey      string
	StorageUseSSL         bool
	StorageBucketBills    string
	StoragePublicBaseURL  string
	SignedURLTTL          time.Duration
	PDFFallbackDir        string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RecaptchaSecret       string
	RedisURL              string
	AsynqQueueName        string
	AsynqConcurrency      int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetAdminEmail() string            { return c.AdminEmail }
func (c *Config) GetAdminPasswordHash() string     { return c.AdminPasswordHash }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// LinkConfig implementation
func (c *Config) GetFrontendBaseURL() string { return c.FrontendBaseURL }
func (c *Config) GetBackendBaseURL() string  { return c.BackendBaseURL }

// CompanyConfig implementation
func (c *Config) GetCompanyName() string        { return c.CompanyName }
func (c *Config) GetCompanyLogoURL() string     { return c.CompanyLogoURL }
func (c *Config) GetCompanyGSTIN() string       { return c.CompanyGSTIN }
func (c *Config) GetCompanyBankDetails() string { return c.CompanyBankDetails }
func (c *Config) GetCompanyUPIID() string       { return c.CompanyUPIID }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSendGridAPIKey() string   { return c.SendGridAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// EmailQueueConfig implementation
func (c *Config) GetEmailQueueThrottle() time.Duration { return c.EmailQueueThrottle }

// WhatsAppConfig implementation
func (c *Config) GetTwilioAccountSID() string     { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string      { return c.TwilioAuthToken }
func (c *Config) GetTwilioWhatsAppFrom() string   { return c.TwilioWhatsAppFrom }
func (c *Config) GetMetaAccessToken() string      { return c.MetaAccessToken }
func (c *Config) GetMetaPhoneNumberID() string    { return c.MetaPhoneNumberID }
func (c *Config) GetMetaTemplateName() string     { return c.MetaTemplateName }
func (c *Config) GetMetaTemplateLanguage() string { return c.MetaTemplateLanguage }
func (c *Config) GetDefaultCountryPrefix() string { return c.DefaultCountryPrefix }

// StorageConfig implementation
func (c *Config) GetStorageEndpoint() string      { return c.StorageEndpoint }
func (c *Config) GetStorageAccessKey() string     { return c.StorageAccessKey }
func (c *Config) GetStorageSecretKey() string     { return c.StorageSecretKey }
func (c *Config) GetStorageUseSSL() bool          { return c.StorageUseSSL }
func (c *Config) GetStorageBucketBills() string   { return c.StorageBucketBills }
func (c *Config) GetStoragePublicBaseURL() string { return c.StoragePublicBaseURL }
func (c *Config) GetSignedURLTTL() time.Duration  { return c.SignedURLTTL }
func (c *Config) IsStorageEnabled() bool          { return c.StorageEndpoint != "" }

// PDFConfig implementation
func (c *Config) GetPDFFallbackDir() string { return c.PDFFallbackDir }

// RazorpayConfig implementation
func (c *Config) GetRazorpayKeyID() string         { return c.RazorpayKeyID }
func (c *Config) GetRazorpayKeySecret() string     { return c.RazorpayKeySecret }
func (c *Config) GetRazorpayWebhookSecret() string { return c.RazorpayWebhookSecret }
func (c *Config) IsRazorpayEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

// RecaptchaConfig implementation
func (c *Config) GetRecaptchaSecret() string { return c.RecaptchaSecret }
func (c *Config) IsRecaptchaEnabled() bool   { return c.RecaptchaSecret != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	sendGridAPIKey := getEnv("SENDGRID_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:        mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		AdminEmail:            getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:     getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		FrontendBaseURL:       strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:4200"), "/"),
		BackendBaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8080"), "/"),
		CompanyName:           getEnv("COMPANY_NAME", "Rental Manager"),
		CompanyLogoURL:        getEnv("COMPANY_LOGO_URL", ""),
		CompanyGSTIN:          getEnv("COMPANY_GSTIN", ""),
		CompanyBankDetails:    getEnv("COMPANY_BANK_DETAILS", ""),
		CompanyUPIID:          getEnv("COMPANY_UPI_ID", ""),
		EmailEnabled:          emailEnabled && (sendGridAPIKey != "" || smtpHost != ""),
		SendGridAPIKey:        sendGridAPIKey,
		SMTPHost:              smtpHost,
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Rental Manager"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailQueueThrottle:    mustDuration(getEnv("EMAIL_QUEUE_THROTTLE", "500ms")),
		TwilioAccountSID:      getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:       getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom:    getEnv("TWILIO_WHATSAPP_FROM", ""),
		MetaAccessToken:       getEnv("META_WA_ACCESS_TOKEN", ""),
		MetaPhoneNumberID:     getEnv("META_WA_PHONE_NUMBER_ID", ""),
		MetaTemplateName:      getEnv("META_WA_TEMPLATE_NAME", "rent_bill_notice"),
		MetaTemplateLanguage:  getEnv("META_WA_TEMPLATE_LANGUAGE", "en"),
		DefaultCountryPrefix:  getEnv("DEFAULT_COUNTRY_PREFIX", "+91"),
		StorageEndpoint:       getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:      getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:      getEnv("STORAGE_SECRET_KEY", ""),
		StorageUseSSL:         strings.EqualFold(getEnv("STORAGE_USE_SSL", "true"), "true"),
		StorageBucketBills:    getEnv("STORAGE_BUCKET_BILLS", "rent-bills"),
		StoragePublicBaseURL:  strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		SignedURLTTL:          mustDuration(getEnv("SIGNED_URL_TTL", "5m")),
		PDFFallbackDir:        getEnv("PDF_FALLBACK_DIR", filepath.Join(os.TempDir(), "rental-bills")),
		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		RecaptchaSecret:       getEnv("RECAPTCHA_SECRET", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
