// Package config loads the server configuration: built-in defaults, then an
// optional YAML file, then environment variables (a .env file is read
// first when present).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const envPrefix = "NEWSDAILY_"

// Built-in admin credentials, meant for local use only.
const (
	DefaultAdminPassword = "admin123"
	DefaultJWTSecret     = "change-me-in-production"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Feeds   FeedsConfig   `yaml:"feeds"`
	Site    SiteConfig    `yaml:"site"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

type StorageConfig struct {
	// Path is the durable store file.
	Path string `yaml:"path"`
	// SeedFile, when set, seeds an empty store at startup.
	SeedFile string `yaml:"seed_file"`
}

type AdminConfig struct {
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	PasswordHash    string        `yaml:"password_hash"`
	JWTSecret       string        `yaml:"jwt_secret"`
	SessionDuration time.Duration `yaml:"session_duration"`
}

type FeedsConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	DefaultCategory string        `yaml:"default_category"`
	UserAgent       string        `yaml:"user_agent"`
}

type SiteConfig struct {
	Name      string `yaml:"name"`
	GuestName string `yaml:"guest_name"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Path: "data/newsdaily.json",
		},
		Admin: AdminConfig{
			Username:        "admin",
			Password:        DefaultAdminPassword,
			JWTSecret:       DefaultJWTSecret,
			SessionDuration: 2 * time.Hour,
		},
		Feeds: FeedsConfig{
			Timeout:         15 * time.Second,
			DefaultCategory: "World",
			UserAgent:       "NewsDaily/1.0",
		},
		Site: SiteConfig{
			Name:      "NewsDaily",
			GuestName: "Guest User",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path may be empty; a named file that
// does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InsecureDefaults names the built-in admin secrets still in effect.
func (c *Config) InsecureDefaults() []string {
	var names []string
	if c.Admin.PasswordHash == "" && c.Admin.Password == DefaultAdminPassword {
		names = append(names, "admin.password")
	}
	if c.Admin.JWTSecret == DefaultJWTSecret {
		names = append(names, "admin.jwt_secret")
	}
	return names
}

func (c *Config) applyEnv() error {
	c.Server.Address = getEnv("ADDRESS", c.Server.Address)
	c.Server.CookieSecure = getEnv("COOKIE_SECURE", strconv.FormatBool(c.Server.CookieSecure)) == "true"
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = strings.Split(origins, ",")
	}

	c.Storage.Path = getEnv("STORE_PATH", c.Storage.Path)
	c.Storage.SeedFile = getEnv("SEED_FILE", c.Storage.SeedFile)

	c.Admin.Username = getEnv("ADMIN_USER", c.Admin.Username)
	c.Admin.Password = getEnv("ADMIN_PASSWORD", c.Admin.Password)
	c.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.Admin.PasswordHash)
	c.Admin.JWTSecret = getEnv("JWT_SECRET", c.Admin.JWTSecret)
	if raw := getEnv("SESSION_HOURS", ""); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Wrapf(err, "invalid %sSESSION_HOURS", envPrefix)
		}
		c.Admin.SessionDuration = time.Duration(hours) * time.Hour
	}

	c.Feeds.DefaultCategory = getEnv("FEED_CATEGORY", c.Feeds.DefaultCategory)
	c.Site.Name = getEnv("SITE_NAME", c.Site.Name)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Development = getEnv("DEBUG", strconv.FormatBool(c.Log.Development)) == "true"
	return nil
}

// getEnv reads NEWSDAILY_<key>, falling back when it is unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}
