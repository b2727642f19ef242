package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/submission-intake/internal/export"
)

func newExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export RECORD.json OUT.xlsx",
		Short: "Write the review workbook for a quote record",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}
			b, err := export.NewService(c.logger).RecordXLSX(rec)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], b, 0o644)
		},
	}
}
