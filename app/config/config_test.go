package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbrain/internal/infrastructure/llm"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "mongo", cfg.Storage.TestCaseStore)
	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.Equal(t, "batch", cfg.Batch.Strategy)
	assert.Equal(t, 10*time.Minute, cfg.Batch.Deadline)
	assert.Equal(t, "providers.hcl", cfg.LLM.ProvidersFile)
	assert.Equal(t, 5, cfg.Knowledge.TopK)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TESTBRAIN_SERVER_PORT", "9090")
	t.Setenv("TESTBRAIN_BATCH_WORKERS", "8")
	t.Setenv("TESTBRAIN_BATCH_STRATEGY", "per_case")
	t.Setenv("TESTBRAIN_LLM_CALL_TIMEOUT", "45s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "per_case", cfg.Batch.Strategy)
	assert.Equal(t, 45*time.Second, cfg.LLM.CallTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testbrain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  test_case_store: postgres
  postgres_dsn: postgres://u:p@localhost:5432/testbrain
embedding:
  provider: ollama
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.TestCaseStore)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "./uploads", cfg.Storage.UploadsDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"port":         func(c *Config) { c.Server.Port = 0 },
		"store":        func(c *Config) { c.Storage.TestCaseStore = "redis" },
		"postgres dsn": func(c *Config) { c.Storage.TestCaseStore = "postgres" },
		"workers":      func(c *Config) { c.Batch.Workers = 0 },
		"strategy":     func(c *Config) { c.Batch.Strategy = "parallel" },
		"embedding":    func(c *Config) { c.Embedding.Provider = "milvus" },
		"top k":        func(c *Config) { c.Knowledge.TopK = 0 },
		"uploads dir":  func(c *Config) { c.Storage.UploadsDir = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseProviders(t *testing.T) {
	src := []byte(`
default = "qwen"

provider "qwen" {
  kind        = "openai"
  model       = "qwen-max"
  base_url    = "https://dashscope.aliyuncs.com/compatible-mode/v1"
  api_key_env = "QWEN_KEY"
  temperature = 0.2
  max_tokens  = 1024
}

provider "gemini" {
  kind  = "gemini"
  model = "gemini-2.5-flash"
}
`)
	pf, err := ParseProviders("providers.hcl", src)
	require.NoError(t, err)
	assert.Equal(t, "qwen", pf.Default)
	require.Len(t, pf.Providers, 2)

	specs := pf.Specs(func(k string) string {
		if k == "QWEN_KEY" {
			return "secret"
		}
		return ""
	})
	assert.Equal(t, llm.ProviderSpec{
		Name: "qwen", Kind: "openai", Model: "qwen-max",
		BaseURL:     "https://dashscope.aliyuncs.com/compatible-mode/v1",
		APIKey:      "secret",
		Temperature: 0.2,
		MaxTokens:   1024,
	}, specs[0])
	assert.Equal(t, "gemini", specs[1].Kind)
	assert.Empty(t, specs[1].APIKey)
}

func TestParseProviders_Errors(t *testing.T) {
	_, err := ParseProviders("providers.hcl", []byte(`provider "a" {}`))
	assert.Error(t, err, "model is required")

	_, err = ParseProviders("providers.hcl", []byte(`
provider "a" { model = "m" }
provider "a" { model = "m" }
`))
	assert.ErrorContains(t, err, "defined twice")
}

func TestLoadProviders_MissingFileUsesDefaults(t *testing.T) {
	pf, err := LoadProviders(filepath.Join(t.TempDir(), "providers.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "deepseek", pf.Default)
	assert.Len(t, pf.Providers, 3)
}
