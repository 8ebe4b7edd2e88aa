package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/internal/sidecar"
	"github.com/eduflow/eduflow-cli/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Register a document and create its sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sourcePath := args[0]

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		fileType, err := sidecar.FileTypeOf(sourcePath)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(sourcePath)
		if err != nil {
			return eris.Wrapf(err, "read %s", sourcePath)
		}

		totalUnits, err := countUnits(cmd, env, fileType, raw)
		if err != nil {
			return err
		}

		f := sidecar.New(uuid.NewString(), sourcePath, fileType, raw, totalUnits)
		path := sidecar.PathFor(sourcePath)
		if _, err := os.Stat(path); err == nil {
			return eris.Errorf("sidecar already exists: %s", path)
		}
		if err := f.Save(path); err != nil {
			return err
		}

		if err := env.Library.RegisterDocument(ctx, store.DocumentRecord{
			ID:          f.App.ID,
			Name:        f.App.Name,
			SidecarPath: path,
			FileType:    fileType,
			Status:      model.StatusPending,
			Total:       totalUnits,
		}); err != nil {
			return err
		}

		zap.L().Info("document ingested",
			zap.String("id", f.App.ID),
			zap.String("sidecar", path),
			zap.Int("totalUnits", totalUnits),
		)
		fmt.Printf("ingested %s (%d units) -> %s\n", f.App.Name, totalUnits, path)
		return nil
	},
}

func countUnits(cmd *cobra.Command, env *pipelineEnv, fileType model.FileType, raw []byte) (int, error) {
	switch {
	case fileType.IsText():
		return len([]rune(string(raw))), nil
	case fileType == model.FileTypePdf:
		pages, err := env.Rasterizer.PageCount(cmd.Context(), raw)
		if err != nil {
			return 0, err
		}
		return pages, nil
	default:
		return 1, nil
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
