package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Question QuestionConfig `yaml:"question" mapstructure:"question"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects and configures the chat provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TextModel         string  `yaml:"text_model" mapstructure:"text_model"`
	VisionModel       string  `yaml:"vision_model" mapstructure:"vision_model"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// OCRConfig configures PDF rasterization.
type OCRConfig struct {
	PdfinfoPath  string `yaml:"pdfinfo_path" mapstructure:"pdfinfo_path"`
	PdftoppmPath string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	DPI          int    `yaml:"dpi" mapstructure:"dpi"`
}

// BatchConfig configures the tearing loop.
type BatchConfig struct {
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
	Target    int `yaml:"target" mapstructure:"target"`
	Workers   int `yaml:"workers" mapstructure:"workers"`
}

// QuestionConfig configures question generation.
type QuestionConfig struct {
	CountPerType int `yaml:"count_per_type" mapstructure:"count_per_type"`
}

// StoreConfig configures the document library index.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the local HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EDUFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("llm.provider", "siliconflow")
	v.SetDefault("llm.text_model", "Qwen/Qwen2.5-72B-Instruct")
	v.SetDefault("llm.vision_model", "Qwen/Qwen2-VL-72B-Instruct")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("ocr.pdfinfo_path", "pdfinfo")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.dpi", 150)
	v.SetDefault("batch.chunk_size", 3000)
	v.SetDefault("batch.target", 10)
	v.SetDefault("batch.workers", 1)
	v.SetDefault("question.count_per_type", 3)
	v.SetDefault("store.path", "eduflow.db")
	v.SetDefault("server.port", 8799)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
