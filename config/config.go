package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadENV loads the environment variables from .env if GO_ENV is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Config holds every runtime setting of the API and the CLI tools
type Config struct {
	GoEnv          string
	Port           int
	LogLevel       string
	AllowedOrigins string

	Database DatabaseConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cron     CronConfig
	Media    MediaConfig
}

// DatabaseConfig selects and configures the relational store
type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite"
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	SQLitePath  string
	AutoMigrate bool
	AutoCreate  bool // create the postgres database when it does not exist
}

// StorageConfig points at the S3-compatible bucket holding university folders
type StorageConfig struct {
	AccountID       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicDomain    string
	PresignExpiry   time.Duration
}

// GeminiConfig configures the generative image API
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RedisConfig configures the optional frame listing cache
type RedisConfig struct {
	URL       string
	FramesTTL time.Duration
}

// JWTConfig configures admin token verification
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// CronConfig configures scheduled housekeeping
type CronConfig struct {
	Enabled         bool
	CleanupSchedule string
}

// MediaConfig configures where uploaded and generated images are written
type MediaConfig struct {
	UploadDir string
	OutputDir string
	Retention time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("GO_ENV", "development")
	v.SetDefault("PORT", 8000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("UNIV_DB_PATH", "univ.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("DB_AUTO_CREATE", true)

	v.SetDefault("R2_REGION", "auto")
	v.SetDefault("R2_PRESIGN_EXPIRY", time.Minute)

	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash-image-preview")
	v.SetDefault("GEMINI_TIMEOUT", 120*time.Second)

	v.SetDefault("REDIS_FRAMES_TTL", 10*time.Minute)

	v.SetDefault("JWT_ISSUER", "uniframes-api")
	v.SetDefault("JWT_EXPIRY", 24*time.Hour)

	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("CRON_CLEANUP_SCHEDULE", "0 0 * * * *")

	v.SetDefault("MEDIA_UPLOAD_DIR", "uploads")
	v.SetDefault("MEDIA_OUTPUT_DIR", "outputs")
	v.SetDefault("MEDIA_RETENTION", 24*time.Hour)

	return v
}

// Get reads the configuration from the environment. When CONFIG_FILE names a
// YAML file, its keys (same names as the environment variables) are read
// first and the environment overrides them.
func Get() (*Config, error) {
	v := newViper()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		GoEnv:          v.GetString("GO_ENV"),
		Port:           v.GetInt("PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER_NAME"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSL_MODE"),
			SQLitePath:  v.GetString("UNIV_DB_PATH"),
			AutoMigrate: v.GetBool("AUTO_MIGRATE"),
			AutoCreate:  v.GetBool("DB_AUTO_CREATE"),
		},
		Storage: StorageConfig{
			AccountID:       v.GetString("R2_ACCOUNT_ID"),
			Endpoint:        v.GetString("R2_ENDPOINT"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("R2_BUCKET"),
			Region:          v.GetString("R2_REGION"),
			PublicDomain:    strings.TrimRight(v.GetString("R2_PUBLIC_DOMAIN"), "/"),
			PresignExpiry:   v.GetDuration("R2_PRESIGN_EXPIRY"),
		},
		Gemini: GeminiConfig{
			APIKey:  v.GetString("GEMINI_API_KEY"),
			BaseURL: v.GetString("GEMINI_BASE_URL"),
			Model:   v.GetString("GEMINI_MODEL"),
			Timeout: v.GetDuration("GEMINI_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL:       v.GetString("REDIS_URL"),
			FramesTTL: v.GetDuration("REDIS_FRAMES_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			Expiry: v.GetDuration("JWT_EXPIRY"),
		},
		Cron: CronConfig{
			Enabled:         v.GetBool("CRON_ENABLED"),
			CleanupSchedule: v.GetString("CRON_CLEANUP_SCHEDULE"),
		},
		Media: MediaConfig{
			UploadDir: v.GetString("MEDIA_UPLOAD_DIR"),
			OutputDir: v.GetString("MEDIA_OUTPUT_DIR"),
			Retention: v.GetDuration("MEDIA_RETENTION"),
		},
	}

	if cfg.Storage.Endpoint == "" && cfg.Storage.AccountID != "" {
		cfg.Storage.Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.Storage.AccountID)
	}

	return cfg, nil
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// Validate reports the required variables that are missing for the given
// database driver and object storage.
func (c *Config) Validate() error {
	missing, err := c.Database.Missing()
	if err != nil {
		return err
	}
	return missingError(append(missing, c.Storage.Missing()...))
}

// Validate checks the database settings alone; the seed and migrate tools
// never touch the bucket.
func (d DatabaseConfig) Validate() error {
	missing, err := d.Missing()
	if err != nil {
		return err
	}
	return missingError(missing)
}

// Missing lists the database variables the selected driver still needs
func (d DatabaseConfig) Missing() ([]string, error) {
	var missing []string

	switch d.Driver {
	case "postgres":
		if d.User == "" {
			missing = append(missing, "DB_USER_NAME")
		}
		if d.Name == "" {
			missing = append(missing, "DB_NAME")
		}
	case "sqlite":
		if d.SQLitePath == "" {
			missing = append(missing, "UNIV_DB_PATH")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", d.Driver)
	}
	return missing, nil
}

func missingError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}

// Missing lists the storage variables that are not configured
func (s StorageConfig) Missing() []string {
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "R2_ACCOUNT_ID or R2_ENDPOINT")
	}
	if s.AccessKeyID == "" {
		missing = append(missing, "R2_ACCESS_KEY_ID")
	}
	if s.SecretAccessKey == "" {
		missing = append(missing, "R2_SECRET_ACCESS_KEY")
	}
	if s.Bucket == "" {
		missing = append(missing, "R2_BUCKET")
	}
	if s.PublicDomain == "" {
		missing = append(missing, "R2_PUBLIC_DOMAIN")
	}
	return missing
}
