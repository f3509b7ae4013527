package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"sahaya-donation-api/database"
	"sahaya-donation-api/services/email"
)

type Config struct {
	Database     database.DatabaseConfig
	Verification VerificationConfig
	Captcha      CaptchaConfig
	UPI          UPIConfig
	SMTP         email.SMTPConfig
	Server       ServerConfig
	Session      SessionConfig
	JWT          JWTConfig
	Redis        RedisConfig
}

// VerificationConfig configura o provedor externo de verificação por SMS
type VerificationConfig struct {
	BaseURL string
	APIKey  string
}

type CaptchaConfig struct {
	Secret string
}

// UPIConfig define o destino do pagamento exibido na etapa final
type UPIConfig struct {
	PayeeVPA  string
	PayeeName string
}

type ServerConfig struct {
	Port string
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	workerConcurrency := 2
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			workerConcurrency = n
		}
	}

	sessionMaxAge := 3600
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			sessionMaxAge = n
		}
	}

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Verification: VerificationConfig{
			BaseURL: os.Getenv("VERIFY_BASE_URL"),
			APIKey:  os.Getenv("VERIFY_API_KEY"),
		},
		Captcha: CaptchaConfig{
			Secret: os.Getenv("HCAPTCHA_SECRET"),
		},
		UPI: UPIConfig{
			PayeeVPA:  os.Getenv("UPI_PAYEE_VPA"),
			PayeeName: os.Getenv("UPI_PAYEE_NAME"),
		},
		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Server: ServerConfig{
			Port: os.Getenv("SERVER_PORT"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Domain: os.Getenv("SESSION_DOMAIN"),
			MaxAge: sessionMaxAge,
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: os.Getenv("JWT_ISSUER"),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: workerConcurrency,
		},
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "sahaya-donation-api"
	}

	if cfg.UPI.PayeeName == "" {
		cfg.UPI.PayeeName = "Sahaya Foundation"
	}

	// Use default Redis URL if not set
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}

	if cfg.Captcha.Secret == "" {
		log.Printf("Warning: HCAPTCHA_SECRET not set, captcha verification disabled")
	}

	return cfg
}
