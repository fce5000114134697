package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

const (
	FormulaTakeProfitWeighted = "takeProfitWeighted"
	FormulaFlatPercent        = "flatPercent"
)

// Config ...
type Config struct {
	LogLevel string `yaml:"log_level"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Service struct {
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	Exchange struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"-"`
		APISecret   string        `yaml:"-"`
		OrdersLimit int           `yaml:"orders_limit"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"exchange"`

	Tracker struct {
		Interval time.Duration `yaml:"interval"`
		// takeProfitWeighted | flatPercent
		RatchetFormula string `yaml:"ratchet_formula"`
		ReRaise        bool   `yaml:"re_raise"`
	} `yaml:"tracker"`

	Store struct {
		// порядок опроса бэкендов при старте; file всегда доступен последним
		Backends  []string `yaml:"backends"`
		RedisAddr string   `yaml:"redis_addr"`
		RedisKey  string   `yaml:"redis_key"`
		DB        string   `yaml:"db_dsn"`
		DBKey     string   `yaml:"db_key"`
		FilePath  string   `yaml:"file_path"`
	} `yaml:"store"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := Config{LogLevel: "info"}
	config.Exchange.BaseURL = "https://open-api.bingx.com"
	config.Exchange.OrdersLimit = 30
	config.Exchange.Timeout = 10 * time.Second
	config.Tracker.Interval = 120 * time.Second
	config.Tracker.RatchetFormula = FormulaTakeProfitWeighted
	config.Store.Backends = []string{"redis", "postgres", "file"}
	config.Store.RedisKey = "saved_locally"
	config.Store.DBKey = "saved_locally"
	config.Store.FilePath = "saved_locally.json"
	config.Service.HealthAddr = ":8080"

	if err := config.readFile(); err != nil {
		return nil, err
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// readFile: yaml не обязателен, без него работаем на дефолтах и env.
func (c *Config) readFile() error {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	dir := getenvDefault(configDirENV, "configs")

	b, err := os.ReadFile(dir + "/" + configFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)

	c.Exchange.BaseURL = getenvDefault("APIURL", c.Exchange.BaseURL)
	c.Exchange.APIKey = os.Getenv("API_KEY")
	c.Exchange.APISecret = os.Getenv("API_SECRET")
	c.Exchange.OrdersLimit = intFromEnv("ORDERS_LIMIT", c.Exchange.OrdersLimit)

	// SLEEP_INTERVAL: секунды, как раньше
	if n := intFromEnv("SLEEP_INTERVAL", 0); n > 0 {
		c.Tracker.Interval = time.Duration(n) * time.Second
	}
	c.Tracker.RatchetFormula = getenvDefault("RATCHET_FORMULA", c.Tracker.RatchetFormula)
	c.Tracker.ReRaise = boolFromEnv("RE_RAISE", c.Tracker.ReRaise)

	if v := os.Getenv("STORE_BACKENDS"); v != "" {
		c.Store.Backends = strings.Split(v, ",")
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Store.RedisAddr = host + ":" + getenvDefault("REDIS_PORT", "6379")
	}
	c.Store.RedisKey = getenvDefault("REDIS_KEY", c.Store.RedisKey)
	c.Store.FilePath = getenvDefault("STATE_FILE", c.Store.FilePath)
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.Store.DB = dsn
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}

	c.Service.HealthAddr = getenvDefault("HEALTH_ADDR", c.Service.HealthAddr)
	c.Tracing.Host = getenvDefault("JAEGER_HOST", c.Tracing.Host)
	c.Tracing.Port = intFromEnv("JAEGER_PORT", c.Tracing.Port)
}

func (c *Config) Validate() error {
	switch c.Tracker.RatchetFormula {
	case FormulaTakeProfitWeighted, FormulaFlatPercent:
	default:
		return fmt.Errorf("unknown ratchet formula %q", c.Tracker.RatchetFormula)
	}
	if c.Tracker.Interval <= 0 {
		return fmt.Errorf("tracker interval must be > 0")
	}
	if c.Exchange.OrdersLimit <= 0 {
		return fmt.Errorf("orders limit must be > 0")
	}
	for i, b := range c.Store.Backends {
		b = strings.ToLower(strings.TrimSpace(b))
		switch b {
		case "redis", "postgres", "file":
		default:
			return fmt.Errorf("unknown store backend %q", b)
		}
		c.Store.Backends[i] = b
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
