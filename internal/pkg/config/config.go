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

// Server содержит конфигурацию HTTP-сервера (серверный режим)
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	TaskTTLHours           int    `json:"task_ttl_hours" yaml:"task_ttl_hours"`
}

// API содержит конфигурацию доступа к платформе обмена сообщениями
type API struct {
	BaseURL                     string `json:"base_url" yaml:"base_url"`
	AccessToken                 string `json:"access_token" yaml:"access_token"`
	SingleRequestTimeoutSeconds int    `json:"single_request_timeout_seconds" yaml:"single_request_timeout_seconds"`
}

// Archive содержит параметры одного запуска архивирования
type Archive struct {
	TextFormat          bool   `json:"text_format" yaml:"text_format"`
	HTMLFormat          bool   `json:"html_format" yaml:"html_format"`
	JSONFormat          bool   `json:"json_format" yaml:"json_format"`
	CompressFolder      bool   `json:"compress_folder" yaml:"compress_folder"`
	DeleteFolder        bool   `json:"delete_folder" yaml:"delete_folder"`
	OverwriteFolder     bool   `json:"overwrite_folder" yaml:"overwrite_folder"`
	ReverseOrder        bool   `json:"reverse_order" yaml:"reverse_order"`
	DownloadAttachments bool   `json:"download_attachments" yaml:"download_attachments"`
	DownloadAvatars     bool   `json:"download_avatars" yaml:"download_avatars"`
	DownloadWorkers     int    `json:"download_workers" yaml:"download_workers"`
	TimestampFormat     string `json:"timestamp_format" yaml:"timestamp_format"`
	// FileFormat — формат упаковки: "tgz" или "zip"
	FileFormat string `json:"file_format" yaml:"file_format"`
	// SpecialToken — у вызывающего есть расширенный доступ ко всем сообщениям
	// комнаты независимо от ограничений бот-аккаунта
	SpecialToken bool `json:"special_token" yaml:"special_token"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// Config содержит конфигурацию приложения
type Config struct {
	Server  Server  `json:"server" yaml:"server"`
	API     API     `json:"api" yaml:"api"`
	Archive Archive `json:"archive" yaml:"archive"`
	Logging Logging `json:"logging" yaml:"logging"`
}

// DefaultArchive возвращает параметры архивирования по умолчанию.
func DefaultArchive() Archive {
	return Archive{
		TextFormat:          true,
		HTMLFormat:          true,
		JSONFormat:          false,
		CompressFolder:      true,
		OverwriteFolder:     true,
		ReverseOrder:        true,
		DownloadAttachments: true,
		DownloadAvatars:     true,
		DownloadWorkers:     DefaultDownloadWorkers,
		TimestampFormat:     DefaultTimestampFormat,
		FileFormat:          DefaultFileFormat,
	}
}

// SingleRequestTimeout возвращает таймаут одного API-запроса.
func (a *API) SingleRequestTimeout() time.Duration {
	if a.SingleRequestTimeoutSeconds <= 0 {
		return DefaultSingleRequestTimeout
	}
	return time.Duration(a.SingleRequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout возвращает таймаут graceful shutdown сервера.
func (s *Server) ShutdownTimeout() time.Duration {
	if s.ShutdownTimeoutSeconds <= 0 {
		return DefaultShutdownTimeout
	}
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// TaskTTL возвращает срок хранения записи о задаче в серверном режиме.
func (s *Server) TaskTTL() time.Duration {
	if s.TaskTTLHours <= 0 {
		return DefaultTaskTTL
	}
	return time.Duration(s.TaskTTLHours) * time.Hour
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig загружает конфигурацию приложения из переменных окружения, .env файла или config.yml
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Если .env файла не существует, это нормально, мы будем полагаться на переменные окружения или config.yml
	}

	// Попытка загрузки из config.yml сначала
	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg = loadFromEnv()
	}

	// Токен из окружения всегда имеет приоритет над файлом
	if token := os.Getenv("WEBEX_ACCESS_TOKEN"); token != "" {
		cfg.API.AccessToken = token
	}

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
	cfg.Archive = DefaultArchive()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения
func loadFromEnv() *Config {
	cfg := &Config{
		Server: Server{
			Host: getEnv("SERVER_HOST", DefaultServerHost),
			Port: getEnvInt("SERVER_PORT", DefaultServerPort),
		},
		API: API{
			BaseURL:                     getEnv("WEBEX_API_BASE_URL", DefaultAPIBaseURL),
			AccessToken:                 getEnv("WEBEX_ACCESS_TOKEN", ""),
			SingleRequestTimeoutSeconds: getEnvInt("SINGLE_REQUEST_TIMEOUT_SECONDS", 0),
		},
		Archive: DefaultArchive(),
		Logging: Logging{
			Level:  getEnv("LOG_LEVEL", DefaultLogLevel),
			Format: getEnv("LOG_FORMAT", DefaultLogFormat),
		},
	}
	return cfg
}

// applyDefaults заполняет незаданные поля значениями по умолчанию
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.Archive.DownloadWorkers == 0 {
		cfg.Archive.DownloadWorkers = DefaultDownloadWorkers
	}
	if cfg.Archive.TimestampFormat == "" {
		cfg.Archive.TimestampFormat = DefaultTimestampFormat
	}
	if cfg.Archive.FileFormat == "" {
		cfg.Archive.FileFormat = DefaultFileFormat
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.API.AccessToken == "" {
		return fmt.Errorf("api.access_token не может быть пустым")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if err := c.Archive.Validate(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
		// all good
	default:
		return fmt.Errorf("logging.format должен быть одним из: text, json")
	}

	return nil
}

// Validate проверяет параметры архивирования. Вызывается до любого I/O.
func (a *Archive) Validate() error {
	if !a.TextFormat && !a.HTMLFormat && !a.JSONFormat {
		return fmt.Errorf("archive: должен быть выбран хотя бы один формат транскрипта (text, html или json)")
	}

	if a.DeleteFolder && !a.CompressFolder {
		return fmt.Errorf("archive: delete_folder без compress_folder уничтожил бы единственный результат")
	}

	if a.DownloadWorkers <= 0 {
		return fmt.Errorf("archive: download_workers должно быть положительным")
	}

	switch a.FileFormat {
	case "tgz", "zip":
		// all good
	default:
		return fmt.Errorf("archive: file_format должен быть одним из: tgz, zip")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt извлекает целочисленную переменную окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
