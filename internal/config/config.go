package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Режимы обращения к сервису детекции
const (
	ModeWorkflow = "workflow" // Roboflow workflow по имени
	ModeModel    = "model"    // Прямой вызов модели по model id
	ModeMock     = "mock"     // Без сетевого вызова
)

// Режимы визуализации
const (
	RenderFull  = "full"  // Рисуем рамки и подписи
	RenderLight = "light" // Возвращаем исходное изображение
)

const (
	defaultWorkflowURL = "https://serverless.roboflow.com"
	defaultModelURL    = "https://detect.roboflow.com"

	// DefaultMaxUploadBytes лимит загрузки по умолчанию (16 MiB)
	DefaultMaxUploadBytes int64 = 16 << 20
	// ServerlessMaxUploadBytes лимит загрузки для serverless окружения (4 MiB)
	ServerlessMaxUploadBytes int64 = 4 << 20
)

// Config структура конфигурации приложения
type Config struct {
	Server    ServerConfig
	Detection DetectionConfig
	Upload    UploadConfig
	Render    RenderConfig
	History   HistoryConfig
	Database  DatabaseConfig
	GRPC      GRPCConfig
	Logging   LoggingConfig
}

// ServerConfig параметры HTTP сервера
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// DetectionConfig параметры внешнего сервиса детекции
type DetectionConfig struct {
	Mode            string
	APIURL          string
	APIKey          string
	Workspace       string
	WorkflowID      string
	ModelID         string
	UseCache        bool
	Timeout         time.Duration
	FallbackEnabled bool // Подставлять демонстрационные детекции при недоступности сервиса
}

// UploadConfig ограничения на загружаемые файлы
type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// RenderConfig параметры визуализации
type RenderConfig struct {
	Mode               string
	JPEGQuality        int
	FallbackToOriginal bool // При ошибке отрисовки вернуть исходное изображение
}

// HistoryConfig параметры сохранения истории анализов
type HistoryConfig struct {
	Enabled   bool
	StaticDir string
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
}

// GRPCConfig параметры gRPC health сервера, Port == 0 отключает его
type GRPCConfig struct {
	Port int
}

// LoggingConfig параметры логирования
type LoggingConfig struct {
	Level string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация сервиса детекции. Ключ API не имеет значения по умолчанию.
	cfg.Detection.Mode = strings.ToLower(getEnv("DETECTION_MODE", ModeWorkflow))
	cfg.Detection.APIURL = strings.TrimRight(getEnv("ROBOFLOW_API_URL", defaultAPIURL(cfg.Detection.Mode)), "/")
	cfg.Detection.APIKey = os.Getenv("ROBOFLOW_API_KEY")
	cfg.Detection.Workspace = getEnv("ROBOFLOW_WORKSPACE", "")
	cfg.Detection.WorkflowID = getEnv("ROBOFLOW_WORKFLOW_ID", "")
	cfg.Detection.ModelID = getEnv("ROBOFLOW_MODEL_ID", "")
	cfg.Detection.UseCache = getEnvBool("ROBOFLOW_USE_CACHE", true)
	cfg.Detection.Timeout = getEnvDuration("DETECTION_TIMEOUT", 30*time.Second)
	cfg.Detection.FallbackEnabled = getEnvBool("DETECTION_FALLBACK_ENABLED", false)

	// Ограничения загрузки
	cfg.Upload.MaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", DefaultMaxUploadBytes)
	cfg.Upload.AllowedExtensions = getEnvList("UPLOAD_ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg", "gif", "bmp"})

	// Визуализация
	cfg.Render.Mode = strings.ToLower(getEnv("RENDER_MODE", RenderFull))
	cfg.Render.JPEGQuality = getEnvInt("RENDER_JPEG_QUALITY", 90)
	cfg.Render.FallbackToOriginal = getEnvBool("RENDER_FALLBACK_ORIGINAL", true)

	// История анализов
	cfg.History.Enabled = getEnvBool("HISTORY_ENABLED", false)
	cfg.History.StaticDir = getEnv("STATIC_DIR", "static")

	// База данных
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Database = getEnv("DB_NAME", "furniture_detector")
	cfg.Database.Username = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	cfg.GRPC.Port = getEnvInt("GRPC_HEALTH_PORT", 0)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	switch c.Detection.Mode {
	case ModeWorkflow:
		if c.Detection.Workspace == "" || c.Detection.WorkflowID == "" {
			return fmt.Errorf("режим workflow требует ROBOFLOW_WORKSPACE и ROBOFLOW_WORKFLOW_ID")
		}
	case ModeModel:
		if c.Detection.ModelID == "" {
			return fmt.Errorf("режим model требует ROBOFLOW_MODEL_ID")
		}
	case ModeMock:
	default:
		return fmt.Errorf("неизвестный режим детекции %q", c.Detection.Mode)
	}

	if c.Detection.Mode != ModeMock && c.Detection.APIKey == "" {
		return fmt.Errorf("ROBOFLOW_API_KEY не задан")
	}
	if c.Detection.Timeout <= 0 {
		return fmt.Errorf("DETECTION_TIMEOUT должен быть положительным")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES должен быть положительным")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("список допустимых расширений пуст")
	}
	if c.Render.Mode != RenderFull && c.Render.Mode != RenderLight {
		return fmt.Errorf("неизвестный режим визуализации %q", c.Render.Mode)
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("RENDER_JPEG_QUALITY должен быть в диапазоне от 1 до 100")
	}
	return nil
}

// ListenAddr адрес HTTP сервера
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultAPIURL(mode string) string {
	if mode == ModeModel {
		return defaultModelURL
	}
	return defaultWorkflowURL
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration принимает как "30s", так и число секунд
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), ".")))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
