package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/internal/sidecar"
)

var processAll bool

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Run extraction batches against an ingested document",
	Long:  "Accepts the source file or its .zsd sidecar. Each invocation tears off one batch; --all loops until the document is done.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		path := args[0]
		if !strings.HasSuffix(path, ".zsd") {
			path = sidecar.PathFor(path)
		}

		f, err := sidecar.Load(path)
		if err != nil {
			return err
		}

		p := env.processor()
		p.Persist = sidecarSaver{path: path}
		env.Hub.Put(f.App)

		for {
			if err := p.RunBatch(ctx, f); err != nil {
				return err
			}
			fmt.Printf("batch %d: +%d knowledge points, cursor %d/%d\n",
				f.App.BatchIndex, f.App.BatchProducedCount, f.ProcessedOffset, f.TotalSize)

			if f.App.Status == model.StatusDone {
				fmt.Printf("done: %d knowledge points total\n", len(f.App.KnowledgePoints))
				return nil
			}
			if !processAll {
				return nil
			}
			if err := ctx.Err(); err != nil {
				zap.L().Info("processing interrupted", zap.String("document", f.App.ID))
				return err
			}
		}
	},
}

func init() {
	processCmd.Flags().BoolVar(&processAll, "all", false, "process batches until the document is done")
	rootCmd.AddCommand(processCmd)
}
