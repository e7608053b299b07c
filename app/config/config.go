package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TESTBRAIN"

type Config struct {
	Server    HTTPServerConfig `mapstructure:"server"`
	LLM       LLMConfig        `mapstructure:"llm"`
	Mongo     MongoConfig      `mapstructure:"mongo"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Batch     BatchConfig      `mapstructure:"batch"`
	Embedding EmbeddingConfig  `mapstructure:"embedding"`
	Knowledge KnowledgeConfig  `mapstructure:"knowledge"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
}

type HTTPServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LLMConfig struct {
	// DefaultProvider overrides the default named in the providers file.
	DefaultProvider string        `mapstructure:"default_provider"`
	ProvidersFile   string        `mapstructure:"providers_file"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type StorageConfig struct {
	// TestCaseStore is mongo or postgres.
	TestCaseStore string `mapstructure:"test_case_store"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	UploadsDir    string `mapstructure:"uploads_dir"`
	VectorDBPath  string `mapstructure:"vector_db_path"`
}

type BatchConfig struct {
	Workers      int           `mapstructure:"workers"`
	Strategy     string        `mapstructure:"strategy"`
	Deadline     time.Duration `mapstructure:"deadline"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	TaskType string `mapstructure:"task_type"`
}

type KnowledgeConfig struct {
	TopK int `mapstructure:"top_k"`
}

type MetricsConfig struct {
	// Addr starts a standalone metrics server when set; /metrics is
	// always served by the API router too.
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 2*time.Minute)
	v.SetDefault("server.write_timeout", 15*time.Minute)

	v.SetDefault("llm.default_provider", "")
	v.SetDefault("llm.providers_file", "providers.hcl")
	v.SetDefault("llm.call_timeout", 2*time.Minute)
	v.SetDefault("llm.max_retries", 3)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "testbrain")

	v.SetDefault("storage.test_case_store", "mongo")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.uploads_dir", "./uploads")
	v.SetDefault("storage.vector_db_path", "./data/vectors.db")

	v.SetDefault("batch.workers", 5)
	v.SetDefault("batch.strategy", "batch")
	v.SetDefault("batch.deadline", 10*time.Minute)
	v.SetDefault("batch.poll_interval", 5*time.Second)

	v.SetDefault("embedding.provider", "hf")
	v.SetDefault("embedding.endpoint", "https://api-inference.huggingface.co/models/BAAI/bge-m3")
	v.SetDefault("embedding.model", "bge-m3")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.task_type", "")

	v.SetDefault("knowledge.top_k", 5)

	v.SetDefault("metrics.addr", "")
}

// Load reads defaults, then the optional config file, then TESTBRAIN_*
// environment variables (TESTBRAIN_SERVER_PORT overrides server.port).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", cfg.Server.Port))
	}
	switch cfg.Storage.TestCaseStore {
	case "mongo":
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.test_case_store %q must be mongo or postgres", cfg.Storage.TestCaseStore))
	}
	if cfg.Storage.UploadsDir == "" {
		errs = append(errs, errors.New("storage.uploads_dir is required"))
	}
	if cfg.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be at least 1, got %d", cfg.Batch.Workers))
	}
	if cfg.Batch.Strategy != "batch" && cfg.Batch.Strategy != "per_case" {
		errs = append(errs, fmt.Errorf("batch.strategy %q must be batch or per_case", cfg.Batch.Strategy))
	}
	switch cfg.Embedding.Provider {
	case "hf", "ollama", "genai":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q must be hf, ollama or genai", cfg.Embedding.Provider))
	}
	if cfg.Knowledge.TopK < 1 {
		errs = append(errs, fmt.Errorf("knowledge.top_k must be at least 1, got %d", cfg.Knowledge.TopK))
	}
	return errors.Join(errs...)
}

func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}
