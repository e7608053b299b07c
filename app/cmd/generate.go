package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testbrain/app/config"
	"testbrain/app/usecase"
	"testbrain/internal/infrastructure/prompt"
	"testbrain/internal/infrastructure/store/filesystem"
)

var (
	genFile     string
	genPaths    string
	genCount    int
	genPriority string
	genProvider string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate API test cases into a local definition document",
	Long: `Runs batch generation against a local API definition document and
writes the new cases back into it.

Example:
  testbrain generate --file api.json --paths /login,/logout --count 2 --priority P0`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "API definition document (JSON)")
	generateCmd.Flags().StringVar(&genPaths, "paths", "", "comma separated API paths to generate for")
	generateCmd.Flags().IntVar(&genCount, "count", 1, "test cases per API")
	generateCmd.Flags().StringVar(&genPriority, "priority", "P0", "priority written into every case")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "LLM provider (default from providers file)")
	_ = generateCmd.MarkFlagRequired("file")
	_ = generateCmd.MarkFlagRequired("paths")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(genFile)
	if err != nil {
		return err
	}
	docs, err := filesystem.NewFileRepository(filepath.Dir(abs))
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	prompts, err := prompt.New()
	if err != nil {
		return err
	}

	var paths []string
	for _, p := range strings.Split(genPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	generator := newBatchGenerator(cfg, registry, nil, prompts)
	res, err := usecase.GenerateDocument(cmd.Context(), docs, generator, filepath.Base(abs), usecase.BatchRequest{
		Keys:           paths,
		CountPerTarget: genCount,
		Priority:       genPriority,
		Provider:       genProvider,
	})
	if err != nil {
		return err
	}
	logger.Info("generation finished", zap.Bool("success", res.Success), zap.Int("generated", res.GeneratedCount))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("generation failed: %s%s", res.Message, res.Error)
	}
	return nil
}
