package util

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second
	defaultRequestTimeout  = 50 * time.Second

	defaultAccessTTL  = 1 * time.Hour
	defaultRefreshTTL = 24 * time.Hour
	defaultResetTTL   = 30 * time.Minute

	defaultSessionTTL = 1 * time.Hour

	JWTLeeWay = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	RequestTimeout  time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
		RequestTimeout:  parseDurationOrDefault("REQUEST_TIMEOUT", defaultRequestTimeout),
	}
}

type TokenConfig struct {
	JwtSecretKey   []byte
	ResetSecretKey []byte
	Audience       string
	Issuer         string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	ResetTTL       time.Duration
}

// NewTokenConfig reads the JWT policy. The reset secret is deliberately
// separate: a leaked reset secret must not be able to forge login tokens.
func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	resetSecret := os.Getenv("JWT_RESET_TOKEN_SECRET")
	if resetSecret == "" {
		log.Fatal("JWT_RESET_TOKEN_SECRET is not set")
	}
	return &TokenConfig{
		JwtSecretKey:   []byte(secret),
		ResetSecretKey: []byte(resetSecret),
		Audience:       os.Getenv("JWT_TOKEN_AUDIENCE"),
		Issuer:         os.Getenv("JWT_TOKEN_ISSUER"),
		AccessTTL:      parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:     parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
		ResetTTL:       parseDurationOrDefault("RESET_TOKEN_TTL", defaultResetTTL),
	}
}

type SessionConfig struct {
	SessionTTL time.Duration
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		SessionTTL: parseDurationOrDefault("PUBLIC_SESSION_TTL", defaultSessionTTL),
	}
}

type EmailConfig struct {
	Region  string
	Sender  string
	BaseURL string
	DevMode bool
}

func NewEmailConfig() *EmailConfig {
	return &EmailConfig{
		Region:  os.Getenv("AWS_REGION"),
		Sender:  os.Getenv("EMAIL_SENDER"),
		BaseURL: os.Getenv("BASE_URL"),
		DevMode: os.Getenv("APP_ENV") == "development",
	}
}

type GoogleConfig struct {
	ClientID string
}

func NewGoogleConfig() *GoogleConfig {
	return &GoogleConfig{
		ClientID: os.Getenv("GOOGLE_CLIENT_ID"),
	}
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
