package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"signal_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	gptKeyENV         = "GPT_KEY"
)

type ChannelConfig struct {
	ChatID  int64  `yaml:"chat_id"`
	Dialect string `yaml:"dialect"` // standard | range
}

// AccountCreds — реквизиты одного MT5-счёта. Ролевой ключ (demo/live/...)
// задаёт, какой счёт считается целевым; один путь резолва вместо
// расползшихся копий.
type AccountCreds struct {
	Login    int64  `yaml:"login"`
	Password string `yaml:"password"`
	Server   string `yaml:"server"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token          string          `yaml:"token"`
		OperatorChatID int64           `yaml:"operator_chat_id"`
		Channels       []ChannelConfig `yaml:"channels"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`

	Bridge struct {
		BaseURL string `yaml:"base_url"` // REST шлюза MT5
		WSURL   string `yaml:"ws_url"`   // поток котировок
	} `yaml:"bridge"`

	// Счета по ролям + политика выбора. Сверка логина перед отправкой ордеров
	// защищает от торговли не тем счётом.
	Accounts    map[string]AccountCreds `yaml:"accounts"`
	AccountRole string                  `yaml:"account_role"` // какой счёт торгует
	RequireDemo bool                    `yaml:"require_demo"` // пускать только демо-счёт

	// Риск
	// Сколько в валюте счёта мы готовы потерять по СТОПАМ одного сигнала
	// (группа из 3 позиций), и потолок просадки счёта в процентах.
	TotalRiskPerSignal float64 `yaml:"total_risk_per_signal"` // например 300.0 EUR
	MaxAccountRiskPct  float64 `yaml:"max_account_risk_pct"`  // например 7.0 => 7%

	// Экстракция (LLM)
	GPTKey            string        `yaml:"gpt_key"`
	GPTModel          string        `yaml:"gpt_model"`
	ExtractionTimeout time.Duration `yaml:"extraction_timeout"`

	// Исполнение: потолок попыток на сигнал, пауза между попытками,
	// пауза между тремя ордерами, допуск "рынок vs отложка" в шагах цены.
	MaxAttempts           int           `yaml:"max_attempts"`
	RetryDelay            time.Duration `yaml:"retry_delay"`
	OrderPause            time.Duration `yaml:"order_pause"`
	MarketTolerancePoints float64       `yaml:"market_tolerance_points"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		AccountRole: getenvDefault("ACCOUNT_ROLE", "demo"),
		RequireDemo: boolFromEnv("REQUIRE_DEMO", true),

		TotalRiskPerSignal: floatFromEnv("TOTAL_RISK_EUR", 300.0),
		MaxAccountRiskPct:  floatFromEnv("MAX_RISK_PERCENTAGE", 7.0),

		GPTModel:          getenvDefault("GPT_MODEL", "gpt-4-turbo"),
		ExtractionTimeout: durationFromEnv("EXTRACTION_TIMEOUT", "30s"),

		MaxAttempts:           intFromEnv("MAX_ATTEMPTS", 3),
		RetryDelay:            durationFromEnv("RETRY_DELAY", "2s"),
		OrderPause:            durationFromEnv("ORDER_PAUSE", "500ms"),
		MarketTolerancePoints: floatFromEnv("MARKET_TOLERANCE_POINTS", 20),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	key := os.Getenv(gptKeyENV)
	if key != "" {
		config.GPTKey = key
	}

	if config.Accounts == nil {
		config.Accounts = map[string]AccountCreds{}
	}
	overlayAccountEnv(config.Accounts)

	return &config, nil
}

// Creds — единственный путь резолва счёта по роли.
func (c *Config) Creds(role string) (AccountCreds, error) {
	creds, ok := c.Accounts[strings.ToLower(role)]
	if !ok {
		return AccountCreds{}, fmt.Errorf("account role %q not configured", role)
	}
	if creds.Login == 0 || creds.Password == "" || creds.Server == "" {
		return AccountCreds{}, fmt.Errorf("account role %q: incomplete credentials", role)
	}
	return creds, nil
}

// TradingCreds — счёт, которым торгуем (AccountRole).
func (c *Config) TradingCreds() (AccountCreds, error) {
	return c.Creds(c.AccountRole)
}

// DialectFor — маппинг чат → диалект канала; 0 если канал не отслеживается.
func (c *Config) DialectFor(chatID int64) models.Dialect {
	for _, ch := range c.Telegram.Channels {
		if ch.ChatID != chatID {
			continue
		}
		switch strings.ToLower(ch.Dialect) {
		case "range":
			return models.DialectRange
		default:
			return models.DialectStandard
		}
	}
	return 0
}

func (c *Config) RiskBudget() models.RiskBudget {
	return models.RiskBudget{
		TotalPerSignal: c.TotalRiskPerSignal,
		MaxAccountPct:  c.MaxAccountRiskPct,
	}
}

// overlayAccountEnv накрывает yaml переменными вида MT5_<ROLE>_LOGIN /
// MT5_<ROLE>_MDP / MT5_<ROLE>_SERVEUR (исторические имена из .env).
func overlayAccountEnv(accounts map[string]AccountCreds) {
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, "MT5_") {
			continue
		}
		rest := strings.TrimPrefix(name, "MT5_")
		role, field, ok := strings.Cut(rest, "_")
		if !ok || value == "" {
			continue
		}
		key := strings.ToLower(role)
		creds := accounts[key]
		switch field {
		case "LOGIN":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				creds.Login = n
			}
		case "MDP", "PASSWORD":
			creds.Password = value
		case "SERVEUR", "SERVER":
			creds.Server = value
		default:
			continue
		}
		accounts[key] = creds
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
