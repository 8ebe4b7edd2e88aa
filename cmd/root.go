package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "eduflow",
	Short: "Local-first learning tool core",
	Long:  "Ingests documents (text, PDF, image), incrementally extracts knowledge points via an LLM, matches exercise answers across pages, and generates practice questions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
