package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"caserss/internal/adapter/rss"
)

// Config представляет основную конфигурацию сервиса лент прецедентов.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Logger   LoggerConfig   `json:"logger"`
	App      AppConfig      `json:"app"`
	Database DatabaseConfig `json:"database"`
}

// ServerConfig содержит настройки HTTP-сервера.
// RateLimit - запросов в секунду с одного IP; 0 отключает ограничение.
type ServerConfig struct {
	Address        string   `json:"address"`
	RequestTimeout string   `json:"request_timeout"`
	RateLimit      float64  `json:"rate_limit"`
	RateBurst      int      `json:"rate_burst"`
	CORSOrigins    []string `json:"cors_origins"`
}

// LoggerConfig содержит настройки логирования.
// Пустое имя файла означает вывод в stderr.
type LoggerConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	ErrorFile string `json:"error_file"`
}

// FeedConfig описывает метаданные канала одной ленты.
type FeedConfig struct {
	Channel rss.ChannelConfig `json:"channel"`
}

// AppConfig содержит настройки конвейеров генерации лент.
type AppConfig struct {
	DefaultLimit      int        `json:"default_limit"`
	DetailConcurrency int        `json:"detail_concurrency"`
	DefaultCourt      string     `json:"default_court"`
	CredentialSecret  string     `json:"credential_secret"`
	EnvFiles          []string   `json:"env_files"`
	FetchTimeout      string     `json:"fetch_timeout"`
	WarmInterval      string     `json:"warm_interval"`
	Scourt            FeedConfig `json:"scourt"`
	Law               FeedConfig `json:"law"`
}

// DatabaseConfig содержит параметры подключения к PostgreSQL.
// Пустой Host отключает базу: кэш ответов хранится в памяти.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// Enabled сообщает, настроено ли подключение к базе.
func (c *DatabaseConfig) Enabled() bool { return c.Host != "" }

// DSN возвращает строку подключения к PostgreSQL в формате URI.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load загружает конфигурацию из JSON-файла поверх значений по умолчанию.
// Пустой путь возвращает значения по умолчанию.
func Load(configPath string) (*Config, error) {
	cfg := New()
	if configPath == "" {
		return cfg, nil
	}
	fileData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := json.Unmarshal(fileData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
	}
	return cfg, nil
}

// New создает новый экземпляр Config с значениями по умолчанию.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			RequestTimeout: "60s",
			RateLimit:      5,
			RateBurst:      10,
			CORSOrigins:    []string{"*"},
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		App: AppConfig{
			DefaultLimit:      49,
			DetailConcurrency: 1,
			DefaultCourt:      "대법원",
			CredentialSecret:  "LAW_OC",
			EnvFiles:          []string{".env"},
			FetchTimeout:      "30s",
			Scourt: FeedConfig{Channel: rss.ChannelConfig{
				Title:       "대법원 판례공보",
				Link:        "https://library.scourt.go.kr/search/judg/press/case",
				Description: "대법원 판례공보",
				Language:    "ko-kr",
				Generator:   "caserss",
			}},
			Law: FeedConfig{Channel: rss.ChannelConfig{
				Title:       "법원 판례",
				Link:        "https://www.law.go.kr/precSc.do",
				Description: "국가법령정보센터 판례",
				Language:    "ko-kr",
				Generator:   "caserss",
			}},
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is not set")
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid server.request_timeout: %w", err)
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		return errors.New("server.rate_burst must be a positive number when rate_limit is set")
	}
	if c.App.DefaultLimit <= 0 {
		return errors.New("app.default_limit must be a positive number")
	}
	if c.App.DetailConcurrency <= 0 {
		return errors.New("app.detail_concurrency must be a positive number")
	}
	if c.App.CredentialSecret == "" {
		return errors.New("app.credential_secret is not set")
	}
	if _, err := time.ParseDuration(c.App.FetchTimeout); err != nil {
		return fmt.Errorf("invalid app.fetch_timeout: %w", err)
	}
	if c.App.WarmInterval != "" {
		if _, err := time.ParseDuration(c.App.WarmInterval); err != nil {
			return fmt.Errorf("invalid app.warm_interval: %w", err)
		}
	}
	for name, feed := range map[string]FeedConfig{"scourt": c.App.Scourt, "law": c.App.Law} {
		if feed.Channel.Title == "" {
			return fmt.Errorf("app.%s.channel.title is not set", name)
		}
		if _, err := url.ParseRequestURI(feed.Channel.Link); err != nil {
			return fmt.Errorf("invalid url in app.%s.channel.link: %s", name, feed.Channel.Link)
		}
	}
	if c.Database.Enabled() {
		if c.Database.Username == "" {
			return errors.New("database username is not set")
		}
		if c.Database.DBName == "" {
			return errors.New("database dbname is not set")
		}
	}
	return nil
}

// Timeout возвращает таймаут обработки входящего запроса. Вызывать после Validate.
func (c *ServerConfig) Timeout() time.Duration { return parseDuration(c.RequestTimeout) }

func (c *Config) FetchTimeout() time.Duration { return parseDuration(c.App.FetchTimeout) }

// WarmInterval возвращает период прогрева кэша; 0 - прогрев отключен.
func (c *Config) WarmInterval() time.Duration { return parseDuration(c.App.WarmInterval) }

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
