// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Upstream содержит конфигурацию доступа к апстрим-сайту
type Upstream struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIURL  string `json:"api_url" yaml:"api_url"`
	ChatURL string `json:"chat_url" yaml:"chat_url"`
	// TradesURL — WebSocket-лента сделок (PUMPFUN_TRADES_URL).
	TradesURL string `json:"trades_url" yaml:"trades_url"`
	// Cookie — сырая строка cookie авторизованной сессии (PUMPFUN_COOKIE).
	Cookie string `json:"cookie,omitempty" yaml:"cookie,omitempty"`
	// JWT — явный токен; если пуст, извлекается из cookie auth_token.
	JWT      string `json:"jwt,omitempty" yaml:"jwt,omitempty"`
	Username string `json:"username" yaml:"username"`

	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// Chat содержит конфигурацию стратегий извлечения чата
type Chat struct {
	DefaultMax                int `json:"default_max" yaml:"default_max"`
	SocketTimeoutSeconds      int `json:"socket_timeout_seconds" yaml:"socket_timeout_seconds"`
	ProfileConcurrency        int `json:"profile_concurrency" yaml:"profile_concurrency"`
	ProfileCacheTTLMinutes    int `json:"profile_cache_ttl_minutes" yaml:"profile_cache_ttl_minutes"`
	CacheCleanupIntervalHours int `json:"cache_cleanup_interval_hours" yaml:"cache_cleanup_interval_hours"`
}

// Browser содержит конфигурацию моста к удаленному браузеру
type Browser struct {
	CDPPort            int  `json:"cdp_port" yaml:"cdp_port"`
	EvalTimeoutSeconds int  `json:"eval_timeout_seconds" yaml:"eval_timeout_seconds"`
	OpenTabs           bool `json:"open_tabs" yaml:"open_tabs"`
}

// Cache содержит конфигурацию бэкенда кэша кошельков
type Cache struct {
	Backend       string `json:"backend" yaml:"backend"` // memory или redis
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

// Payout содержит конфигурацию выплат
type Payout struct {
	// Secret — общий секрет, которым защищен POST /payout.
	// Пустой секрет отключает эндпоинт целиком.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// LedgerPath — путь к append-only журналу поручений на выплату.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// Config содержит конфигурацию приложения
type Config struct {
	Server   Server   `json:"server" yaml:"server"`
	Upstream Upstream `json:"upstream" yaml:"upstream"`
	Chat     Chat     `json:"chat" yaml:"chat"`
	Browser  Browser  `json:"browser" yaml:"browser"`
	Cache    Cache    `json:"cache" yaml:"cache"`
	Payout   Payout   `json:"payout" yaml:"payout"`
	Logging  Logging  `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из переменных окружения, .env файла или config.yml
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Если .env файла не существует, это нормально: полагаемся на окружение или config.yml
	}

	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		cfg = &Config{}
	}
	// Переменные окружения всегда накладываются поверх YAML,
	// чтобы секреты не приходилось класть в файл.
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// applyEnv накладывает известные переменные окружения поверх конфигурации.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PUMPFUN_COOKIE"); v != "" {
		cfg.Upstream.Cookie = v
	}
	if v := os.Getenv("PUMPFUN_JWT"); v != "" {
		cfg.Upstream.JWT = v
	}
	if v := os.Getenv("PUMPFUN_USERNAME"); v != "" {
		cfg.Upstream.Username = v
	}
	if v := os.Getenv("PUMPFUN_TRADES_URL"); v != "" {
		cfg.Upstream.TradesURL = v
	}
	if v := os.Getenv("CDP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Browser.CDPPort = port
		}
	}
	if v := os.Getenv("PAYOUT_SECRET"); v != "" {
		cfg.Payout.Secret = v
	}
	if v := os.Getenv("PAYOUT_LEDGER"); v != "" {
		cfg.Payout.LedgerPath = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDefaults подставляет значения по умолчанию на место незаполненных полей.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = int(DefaultShutdownTimeout / time.Second)
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.APIURL == "" {
		cfg.Upstream.APIURL = DefaultUpstreamAPIURL
	}
	if cfg.Upstream.ChatURL == "" {
		cfg.Upstream.ChatURL = DefaultUpstreamChatURL
	}
	if cfg.Upstream.TradesURL == "" {
		cfg.Upstream.TradesURL = DefaultUpstreamTradesURL
	}
	if cfg.Upstream.Username == "" {
		cfg.Upstream.Username = DefaultViewerUsername
	}
	if cfg.Upstream.RequestTimeoutSeconds == 0 {
		cfg.Upstream.RequestTimeoutSeconds = int(DefaultRequestTimeout / time.Second)
	}
	if cfg.Chat.DefaultMax == 0 {
		cfg.Chat.DefaultMax = DefaultChatMax
	}
	if cfg.Chat.SocketTimeoutSeconds == 0 {
		cfg.Chat.SocketTimeoutSeconds = int(DefaultSocketTimeout / time.Second)
	}
	if cfg.Chat.ProfileConcurrency == 0 {
		cfg.Chat.ProfileConcurrency = DefaultProfileConcurrency
	}
	if cfg.Chat.ProfileCacheTTLMinutes == 0 {
		cfg.Chat.ProfileCacheTTLMinutes = int(DefaultProfileCacheTTL / time.Minute)
	}
	if cfg.Chat.CacheCleanupIntervalHours == 0 {
		cfg.Chat.CacheCleanupIntervalHours = int(DefaultCacheCleanupInterval / time.Hour)
	}
	if cfg.Browser.CDPPort == 0 {
		cfg.Browser.CDPPort = DefaultCDPPort
	}
	if cfg.Browser.EvalTimeoutSeconds == 0 {
		cfg.Browser.EvalTimeoutSeconds = int(DefaultEvalTimeout / time.Second)
	}
	if cfg.Payout.LedgerPath == "" {
		cfg.Payout.LedgerPath = DefaultPayoutLedgerPath
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = DefaultRedisAddr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RequestTimeout возвращает таймаут HTTP-запросов к апстриму.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Upstream.RequestTimeoutSeconds) * time.Second
}

// SocketTimeout возвращает бюджет времени одной socket-сессии join+history.
func (c *Config) SocketTimeout() time.Duration {
	return time.Duration(c.Chat.SocketTimeoutSeconds) * time.Second
}

// ProfileCacheTTL возвращает срок жизни записи кэша кошельков.
func (c *Config) ProfileCacheTTL() time.Duration {
	return time.Duration(c.Chat.ProfileCacheTTLMinutes) * time.Minute
}

// EvalTimeout возвращает таймаут одной оценки скрипта в браузере.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Browser.EvalTimeoutSeconds) * time.Second
}

// CacheCleanupInterval возвращает период очистки кэша в памяти.
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.Chat.CacheCleanupIntervalHours) * time.Hour
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	if c.Upstream.BaseURL == "" || c.Upstream.ChatURL == "" || c.Upstream.APIURL == "" {
		return fmt.Errorf("upstream.base_url, upstream.api_url и upstream.chat_url не могут быть пустыми")
	}

	if c.Upstream.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.request_timeout_seconds должно быть положительным")
	}

	if c.Chat.DefaultMax <= 0 || c.Chat.DefaultMax > MaxChatMessagesHTTP {
		return fmt.Errorf("chat.default_max должно быть в диапазоне 1-%d", MaxChatMessagesHTTP)
	}

	if c.Chat.ProfileConcurrency <= 0 || c.Chat.ProfileConcurrency > MaxProfileConcurrency {
		return fmt.Errorf("chat.profile_concurrency должно быть в диапазоне 1-%d", MaxProfileConcurrency)
	}

	if c.Chat.ProfileCacheTTLMinutes <= 0 {
		return fmt.Errorf("chat.profile_cache_ttl_minutes должно быть положительным")
	}

	if c.Browser.CDPPort <= 0 || c.Browser.CDPPort > 65535 {
		return fmt.Errorf("browser.cdp_port должен быть действительным номером порта (1-65535)")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr не может быть пустым при backend=redis")
		}
	default:
		return fmt.Errorf("cache.backend должен быть одним из: memory, redis")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	return nil
}
