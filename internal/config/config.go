// Package config assembles server settings from defaults, an optional YAML
// file and COFFEE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/coffee-research/coffee/internal/utils"
)

const (
	ENV_CONFIG_FILE = "COFFEE_CONFIG_FILE"

	ENV_ADDR           = "COFFEE_ADDR"
	ENV_ALLOW_ORIGINS  = "COFFEE_ALLOW_ORIGINS"
	ENV_SQLITE_PATH    = "COFFEE_SQLITE_PATH"
	ENV_MIGRATIONS_DIR = "COFFEE_MIGRATIONS_DIR"
	ENV_JWT_SECRET     = "COFFEE_JWT_SECRET"
	ENV_REDIS_ADDR     = "COFFEE_REDIS_ADDR"
	ENV_REDIS_PASSWORD = "COFFEE_REDIS_PASSWORD"
	ENV_REDIS_DB       = "COFFEE_REDIS_DB"
	ENV_SESSION_TTL    = "COFFEE_SESSION_TTL"
	ENV_SEED_FIXTURES  = "COFFEE_SEED_FIXTURES"
	ENV_STATIC_DIR     = "COFFEE_STATIC_DIR"
	ENV_COMMIT         = "COFFEE_COMMIT"
	ENV_BUILD_TIME     = "COFFEE_BUILD_TIME"

	ENV_LOG_LEVEL       = "COFFEE_LOG_LEVEL"
	ENV_LOG_INCLUDE_SRC = "COFFEE_LOG_INCLUDE_SRC"
	ENV_LOG_TO_FILE     = "COFFEE_LOG_TO_FILE"
	ENV_LOG_FILENAME    = "COFFEE_LOG_FILENAME"
	ENV_LOG_MAX_SIZE    = "COFFEE_LOG_MAX_SIZE"
	ENV_LOG_MAX_AGE     = "COFFEE_LOG_MAX_AGE"
	ENV_LOG_MAX_BACKUPS = "COFFEE_LOG_MAX_BACKUPS"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Addr          string        `yaml:"addr"`
	AllowOrigins  []string      `yaml:"allow_origins"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MigrationsDir string        `yaml:"migrations_dir"`
	JWTSecret     string        `yaml:"jwt_secret"`
	Redis         RedisConfig   `yaml:"redis"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SeedFixtures  bool          `yaml:"seed_fixtures"`
	StaticDir     string        `yaml:"static_dir"`

	Log utils.LoggerConfig `yaml:"log"`

	Commit    string `yaml:"-"`
	BuildTime string `yaml:"-"`
}

func Default() Config {
	return Config{
		Addr:       ":8080",
		SQLitePath: "data/coffee.db",
		SessionTTL: 24 * time.Hour,
		Log: utils.LoggerConfig{
			Level:      "info",
			Filename:   "logs/coffee.log",
			MaxSize:    50,
			MaxAge:     14,
			MaxBackups: 5,
		},
	}
}

// Load reads an optional .env file, then the YAML file named by
// COFFEE_CONFIG_FILE, then environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path := utils.SafeEnv(ENV_CONFIG_FILE, ""); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = utils.SafeEnv(ENV_ADDR, c.Addr)
	if v := utils.SafeEnv(ENV_ALLOW_ORIGINS, ""); v != "" {
		c.AllowOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowOrigins = append(c.AllowOrigins, o)
			}
		}
	}
	c.SQLitePath = utils.SafeEnv(ENV_SQLITE_PATH, c.SQLitePath)
	c.MigrationsDir = utils.SafeEnv(ENV_MIGRATIONS_DIR, c.MigrationsDir)
	c.JWTSecret = utils.SafeEnv(ENV_JWT_SECRET, c.JWTSecret)
	c.Redis.Addr = utils.SafeEnv(ENV_REDIS_ADDR, c.Redis.Addr)
	c.Redis.Password = utils.SafeEnv(ENV_REDIS_PASSWORD, c.Redis.Password)
	c.Redis.DB = utils.EnvInt(ENV_REDIS_DB, c.Redis.DB)
	c.SessionTTL = utils.EnvDuration(ENV_SESSION_TTL, c.SessionTTL)
	c.SeedFixtures = utils.EnvBool(ENV_SEED_FIXTURES, c.SeedFixtures)
	c.StaticDir = utils.SafeEnv(ENV_STATIC_DIR, c.StaticDir)
	c.Commit = utils.SafeEnv(ENV_COMMIT, c.Commit)
	c.BuildTime = utils.SafeEnv(ENV_BUILD_TIME, c.BuildTime)

	c.Log.Level = utils.SafeEnv(ENV_LOG_LEVEL, c.Log.Level)
	c.Log.IncludeSrc = utils.EnvBool(ENV_LOG_INCLUDE_SRC, c.Log.IncludeSrc)
	c.Log.LogToFile = utils.EnvBool(ENV_LOG_TO_FILE, c.Log.LogToFile)
	c.Log.Filename = utils.SafeEnv(ENV_LOG_FILENAME, c.Log.Filename)
	c.Log.MaxSize = utils.EnvInt(ENV_LOG_MAX_SIZE, c.Log.MaxSize)
	c.Log.MaxAge = utils.EnvInt(ENV_LOG_MAX_AGE, c.Log.MaxAge)
	c.Log.MaxBackups = utils.EnvInt(ENV_LOG_MAX_BACKUPS, c.Log.MaxBackups)
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if c.SQLitePath == "" {
		return errors.New("config: sqlite_path is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session_ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis db must not be negative, got %d", c.Redis.DB)
	}
	return nil
}

// UseRedis reports whether sessions should be kept in Redis.
func (c Config) UseRedis() bool { return c.Redis.Addr != "" }
