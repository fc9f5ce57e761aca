package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs from the environment. A local
// .env file is honored in development; real deployments set variables directly.
type Config struct {
	Addr     string
	LogLevel string

	PostgresDSN string
	RedisURL    string

	AWSRegion      string
	AWSEndpointURL string
	S3Bucket       string
	S3PublicBase   string
	UploadFolder   string
	UploadTimeout  time.Duration
	PresignTTL     time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	ProgramName  string

	JWTSigningKey string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	RequestTimeout time.Duration
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           ":" + get("PORT", "8080"),
		LogLevel:       get("LOG_LEVEL", "info"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AWSRegion:      get("AWS_REGION", "eu-west-2"),
		AWSEndpointURL: os.Getenv("AWS_ENDPOINT_URL"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3PublicBase:   os.Getenv("S3_PUBLIC_BASE_URL"),
		UploadFolder:   get("UPLOAD_FOLDER", "applicant-documents"),
		UploadTimeout:  duration("UPLOAD_TIMEOUT", 30*time.Second),
		PresignTTL:     duration("UPLOAD_SIGNATURE_TTL", 15*time.Minute),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       integer("SMTP_PORT", 587),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       os.Getenv("MAIL_FROM"),
		ProgramName:    get("PROGRAM_NAME", "UK Masterclass"),
		JWTSigningKey:  os.Getenv("JWT_SECRET"),
		TokenTTL:       duration("TOKEN_TTL", time.Hour),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		RequestTimeout: duration("REQUEST_TIMEOUT", 60*time.Second),
	}

	if cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("POSTGRES_DSN is required")
	}
	if cfg.JWTSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if cfg.S3Bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET is required")
	}

	return cfg, nil
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
