package mcp

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/kfreiman/interviewcoach/internal/store"
)

// Config holds the configuration for the MCP server
type Config struct {
	Port        int    `env:"PORT" env-default:"8080" env-description:"HTTP server port"`
	StoragePath string `env:"STORAGE_PATH" env-default:"./storage" env-description:"Directory for redacted document copies"`
	StorageTTL  string `env:"STORAGE_TTL" env-default:"24h" env-description:"Default TTL for documents and idle sessions (e.g., 24h, 1h30m)"`

	DBDriver      string `env:"DB_DRIVER" env-description:"Database driver (sqlite or mysql); mysql when MYSQL_HOST is set"`
	SQLitePath    string `env:"SQLITE_PATH" env-default:".data/interviewcoach.sqlite3" env-description:"SQLite database file"`
	MySQLHost     string `env:"MYSQL_HOST" env-description:"MySQL host"`
	MySQLPort     int    `env:"MYSQL_PORT" env-default:"3306" env-description:"MySQL port"`
	MySQLUser     string `env:"MYSQL_USER" env-description:"MySQL user"`
	MySQLPassword string `env:"MYSQL_PASSWORD" env-description:"MySQL password"`
	MySQLDatabase string `env:"MYSQL_DATABASE" env-description:"MySQL database name"`

	GeminiAPIKey        string  `env:"GEMINI_API_KEY" env-description:"Google Gemini API key"`
	GeminiModel         string  `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash" env-description:"Primary Gemini model"`
	GeminiFallbackModel string  `env:"GEMINI_FALLBACK_MODEL" env-description:"Model used when the primary one fails"`
	LLMTemperature      float32 `env:"LLM_TEMPERATURE" env-default:"0.2" env-description:"Sampling temperature for generation"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED" env-default:"true" env-description:"Run model moderation on user text"`
	SafetyMaxChars    int    `env:"SAFETY_MAX_CHARS" env-default:"12000" env-description:"Maximum characters of user text sent to the model"`
	PromptCatalogPath string `env:"PROMPT_CATALOG_PATH" env-description:"Optional YAML or TOML file overriding prompt tones"`

	AMQPURL      string `env:"AMQP_URL" env-description:"RabbitMQ URL for interview events; empty disables publishing"`
	AMQPExchange string `env:"AMQP_EXCHANGE" env-default:"interviewcoach.events" env-description:"Topic exchange for interview events"`
}

// LoadConfig loads configuration from an optional .env file and the
// environment. Variables already set win over the file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.Store().DSN(); err != nil {
		return cfg, err
	}
	if _, err := cfg.TTL(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTL parses StorageTTL
func (c Config) TTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.StorageTTL)
	if err != nil {
		return 0, fmt.Errorf("parse STORAGE_TTL: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("STORAGE_TTL must be positive, got %s", c.StorageTTL)
	}
	return ttl, nil
}

// Store returns the database settings
func (c Config) Store() store.Config {
	return store.Config{
		Driver:     c.DBDriver,
		SQLitePath: c.SQLitePath,
		MySQL: store.MySQLConfig{
			Host:     c.MySQLHost,
			Port:     c.MySQLPort,
			User:     c.MySQLUser,
			Password: c.MySQLPassword,
			Database: c.MySQLDatabase,
		},
	}
}

// WithStoragePath sets the storage path
func (c Config) WithStoragePath(path string) Config {
	c.StoragePath = path
	return c
}

// WithStorageTTL sets the storage TTL
func (c Config) WithStorageTTL(ttl string) Config {
	c.StorageTTL = ttl
	return c
}

// WithPort sets the server port
func (c Config) WithPort(port int) Config {
	c.Port = port
	return c
}

// WithSQLitePath selects the SQLite backend at path
func (c Config) WithSQLitePath(path string) Config {
	c.DBDriver = store.DriverSQLite
	c.SQLitePath = path
	return c
}

// WithGemini sets the API key and models
func (c Config) WithGemini(apiKey, model, fallback string) Config {
	c.GeminiAPIKey = apiKey
	c.GeminiModel = model
	c.GeminiFallbackModel = fallback
	return c
}

// WithAMQP sets the event broker
func (c Config) WithAMQP(url, exchange string) Config {
	c.AMQPURL = url
	c.AMQPExchange = exchange
	return c
}
