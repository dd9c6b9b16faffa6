package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port     int
	LogLevel string
	// PublicURL is prefixed to links sent by email.
	PublicURL string

	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ActivationTokenTTL time.Duration

	DefaultCountryCode string
	OTPSendLimit       int
	OTPSendWindow      time.Duration

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	SMSTimeout        time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		Port:      getEnvInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "konnectia"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
		ActivationTokenTTL: getEnvDuration("ACTIVATION_TOKEN_TTL", 24*time.Hour),

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+91"),
		OTPSendLimit:       getEnvInt("OTP_SEND_LIMIT", 5),
		OTPSendWindow:      getEnvDuration("OTP_SEND_WINDOW", 15*time.Minute),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		SMSTimeout:        getEnvDuration("SMS_TIMEOUT", 10*time.Second),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5137")),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 3),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if !strings.HasPrefix(c.DefaultCountryCode, "+") {
		errs = append(errs, errors.New("DEFAULT_COUNTRY_CODE must start with +"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
