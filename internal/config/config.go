package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
		LoginURL  string        `mapstructure:"login_url"`
	}
	Feed struct {
		PageSize        int  `mapstructure:"page_size"`
		AllowSelfFollow bool `mapstructure:"allow_self_follow"`
	}
	Cache struct {
		Driver string
		TTL    time.Duration
		Size   int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	Storage struct {
		Driver   string
		MediaDir string `mapstructure:"media_dir"`
		MediaURL string `mapstructure:"media_url"`
		Bucket   string
		Region   string
		Endpoint string
		MaxBytes int64 `mapstructure:"max_bytes"`
	}
	AWS struct {
		Profile string
	}
	Admin struct {
		Username string
		Password string
	}
}

// Load reads configuration from environment variables and optional config files.
// Files in paths are searched for config.{yaml,toml,json}; the working
// directory is used when none are given.
func Load(paths ...string) (Config, error) {
	// .env never overrides the real environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("YATUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8000")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/yatube.db")
	v.SetDefault("database.dsn", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.login_url", "/auth/login/")

	v.SetDefault("feed.page_size", 10)
	v.SetDefault("feed.allow_self_follow", true)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 20*time.Second)
	v.SetDefault("cache.size", 1024)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "yatube")

	v.SetDefault("storage.driver", "filesystem")
	v.SetDefault("storage.media_dir", "data/media")
	v.SetDefault("storage.media_url", "/media/")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.max_bytes", 5<<20)

	v.SetDefault("aws.profile", "")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")
}

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Database.Driver == "postgres" && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required for the postgres driver")
	}
	if c.Storage.Driver == "s3" && strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket is required for the s3 driver")
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}
