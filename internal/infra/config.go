package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации сервиса-ретранслятора.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Airtable AirtableConfig `mapstructure:"airtable"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StripeConfig — ключи платежного провайдера.
// SecretKey зарезервирован под исходящие вызовы API, WebhookSecret
// используется для проверки подписи входящих вебхуков.
type StripeConfig struct {
	SecretKey     string        `mapstructure:"secret_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Tolerance     time.Duration `mapstructure:"tolerance"` // допуск по времени для t= в подписи
}

// AirtableConfig описывает подключение к табличному хранилищу.
type AirtableConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	Table   string `mapstructure:"table"`
	BaseURL string `mapstructure:"base_url"` // перекрывается в тестах
}

// GmailConfig — OAuth-креды почтового сервиса и адрес получателя алертов.
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	Sender       string `mapstructure:"sender"`
	AlertTo      string `mapstructure:"alert_to"`
	TokenURL     string `mapstructure:"token_url"` // перекрывается в тестах
	APIURL       string `mapstructure:"api_url"`
}

// RelayConfig содержит настройки надежности исходящих вызовов к синкам.
type RelayConfig struct {
	// Настройки Circuit Breaker для внешних коннекторов
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`

	// Ретраи внутри клиента Airtable (контракт 429/Retry-After)
	RetryAttempts uint `mapstructure:"retry_attempts"`

	// Лимитер исходящих запросов (Airtable разрешает 5 rps на базу)
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: STRIPE_WEBHOOK_SECRET перекроет stripe.webhook_secret
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("stripe.tolerance", 5*time.Minute)

	// Секреты регистрируем пустыми, чтобы viper знал ключи и
	// перекрытие из ENV доезжало до Unmarshal
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("airtable.api_key", "")
	v.SetDefault("airtable.base_id", "")
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.refresh_token", "")
	v.SetDefault("gmail.sender", "")

	v.SetDefault("airtable.table", "Failed Payments")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")

	v.SetDefault("gmail.alert_to", "admin@example.com")
	v.SetDefault("gmail.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("gmail.api_url", "https://gmail.googleapis.com/gmail/v1")

	v.SetDefault("relay.cb_max_requests", 3)
	v.SetDefault("relay.cb_interval", 5*time.Second)
	v.SetDefault("relay.cb_timeout", 30*time.Second)
	v.SetDefault("relay.retry_attempts", 3)
	v.SetDefault("relay.rate_limit", 5)
	v.SetDefault("relay.rate_burst", 5)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// Validate проверяет, что секреты, без которых сервис бесполезен, заданы.
func (c *Config) Validate() error {
	if c.Stripe.WebhookSecret == "" {
		return errors.New("stripe.webhook_secret is required")
	}
	if c.Airtable.APIKey == "" || c.Airtable.BaseID == "" {
		return errors.New("airtable.api_key and airtable.base_id are required")
	}
	return nil
}
