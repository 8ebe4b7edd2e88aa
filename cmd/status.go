package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List ingested documents and their extraction progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		docs, err := env.Library.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("no documents ingested")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tPROGRESS\tKNOWLEDGE")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\n",
				d.ID, d.Name, d.FileType, d.Status, d.Cursor, d.Total, d.KnowledgeCount)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
