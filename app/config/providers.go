package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"testbrain/internal/infrastructure/llm"
)

// ProvidersFile is the decoded providers.hcl:
//
//	default = "deepseek"
//
//	provider "deepseek" {
//	  kind        = "openai"
//	  model       = "deepseek-chat"
//	  base_url    = "https://api.deepseek.com/v1"
//	  api_key_env = "DEEPSEEK_API_KEY"
//	}
type ProvidersFile struct {
	Default   string          `hcl:"default,optional"`
	Providers []ProviderBlock `hcl:"provider,block"`
}

type ProviderBlock struct {
	Name        string  `hcl:"name,label"`
	Kind        string  `hcl:"kind,optional"`
	Model       string  `hcl:"model"`
	BaseURL     string  `hcl:"base_url,optional"`
	APIKeyEnv   string  `hcl:"api_key_env,optional"`
	Temperature float64 `hcl:"temperature,optional"`
	MaxTokens   int     `hcl:"max_tokens,optional"`
}

func DefaultProviders() ProvidersFile {
	return ProvidersFile{
		Default: "deepseek",
		Providers: []ProviderBlock{
			{
				Name: "deepseek", Kind: llm.KindOpenAI, Model: "deepseek-chat",
				BaseURL: "https://api.deepseek.com/v1", APIKeyEnv: "DEEPSEEK_API_KEY",
				Temperature: 0.7, MaxTokens: 2000,
			},
			{
				Name: "qwen", Kind: llm.KindOpenAI, Model: "qwen-max",
				BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", APIKeyEnv: "QWEN_API_KEY",
				Temperature: 0.7, MaxTokens: 2000,
			},
			{
				Name: "openai", Kind: llm.KindOpenAI, Model: "gpt-3.5-turbo",
				BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY",
				Temperature: 0.7, MaxTokens: 2000,
			},
		},
	}
}

// LoadProviders decodes the HCL providers file. A missing file yields the
// built-in providers.
func LoadProviders(path string) (ProvidersFile, error) {
	if path == "" {
		return DefaultProviders(), nil
	}
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultProviders(), nil
	}
	if err != nil {
		return ProvidersFile{}, fmt.Errorf("read providers file: %w", err)
	}
	return ParseProviders(path, src)
}

// ParseProviders decodes src; filename picks the syntax (.hcl or .json).
func ParseProviders(filename string, src []byte) (ProvidersFile, error) {
	var pf ProvidersFile
	if err := hclsimple.Decode(filename, src, nil, &pf); err != nil {
		return ProvidersFile{}, fmt.Errorf("decode providers file: %w", err)
	}

	seen := make(map[string]bool, len(pf.Providers))
	for _, p := range pf.Providers {
		if seen[p.Name] {
			return ProvidersFile{}, fmt.Errorf("provider %q is defined twice", p.Name)
		}
		seen[p.Name] = true
	}
	if pf.Default == "" && len(pf.Providers) > 0 {
		pf.Default = pf.Providers[0].Name
	}
	return pf, nil
}

// Specs resolves API keys through getenv.
func (pf ProvidersFile) Specs(getenv func(string) string) []llm.ProviderSpec {
	specs := make([]llm.ProviderSpec, 0, len(pf.Providers))
	for _, p := range pf.Providers {
		var key string
		if p.APIKeyEnv != "" {
			key = getenv(p.APIKeyEnv)
		}
		specs = append(specs, llm.ProviderSpec{
			Name:        p.Name,
			Kind:        p.Kind,
			Model:       p.Model,
			BaseURL:     p.BaseURL,
			APIKey:      key,
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		})
	}
	return specs
}
