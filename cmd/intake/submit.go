package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/submission-intake/internal/app"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

func newSubmitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "submit RECORD.json",
		Short: "Submit a reviewed quote record to the quote API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}
			return c.submitRecord(cmd, rec)
		},
	}
}

// submitRecord prints the approved quote as JSON. A decline is returned as an error
// so the exit status reflects it.
func (c *cli) submitRecord(cmd *cobra.Command, rec *entity.QuoteRecord) error {
	cache, closeCache := app.NewTokenCache(cmd.Context(), c.cfg.Redis, c.logger)
	defer closeCache()
	client, err := app.NewSubmitter(c.cfg, cache, c.logger)
	if err != nil {
		return err
	}
	res, err := client.Submit(cmd.Context(), rec)
	if err != nil {
		return err
	}
	if res.Declined != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Edit the record and submit again.")
		return res.Err()
	}
	return writeJSON(c.stdout, res.Approved)
}
