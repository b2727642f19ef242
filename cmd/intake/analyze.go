package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/app"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/export"
	"github.com/joseph-ayodele/submission-intake/internal/ingest"
	"github.com/joseph-ayodele/submission-intake/internal/pipeline"
)

type analyzeOpts struct {
	eml               string
	pdfs              []string
	dir               string
	bodyFile          string
	alreadySummarized bool
	out               string
	xlsx              string
	submit            bool
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var o analyzeOpts
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Extract a quote record from an email and/or PDFs",
		Example: `  intake analyze --eml request.eml
  intake analyze --pdf s3://intake/acord.pdf --pdf loss-runs.pdf --xlsx review.xlsx
  intake analyze --dir ./submission-42 --submit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAnalyze(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.eml, "eml", "", "email file (.eml), local path or s3:// URI")
	f.StringSliceVar(&o.pdfs, "pdf", nil, "PDF document, local path or s3:// URI (repeatable)")
	f.StringVar(&o.dir, "dir", "", "directory holding one .eml and any number of PDFs")
	f.StringVar(&o.bodyFile, "body-file", "", "plain-text email body to use instead of the parsed one")
	f.BoolVar(&o.alreadySummarized, "already-summarized", false, "the body is already a summary")
	f.StringVarP(&o.out, "out", "o", "", "write the record JSON here instead of stdout")
	f.StringVar(&o.xlsx, "xlsx", "", "also write the review workbook")
	f.BoolVar(&o.submit, "submit", false, "submit the record to the quote API after extraction")
	return cmd
}

func (c *cli) runAnalyze(cmd *cobra.Command, o analyzeOpts) error {
	ctx := cmd.Context()
	if err := c.cfg.ValidateForAnalyze(); err != nil {
		return err
	}

	emlURI, pdfURIs := o.eml, o.pdfs
	if o.dir != "" {
		found, stats, err := ingest.DiscoverDirectory(o.dir, true)
		if err != nil {
			return err
		}
		c.logger.Info("ingest.dir.scanned", "root", o.dir, "matched", stats.Matched, "skipped", stats.Skipped)
		if len(found.Emails) > 1 {
			return common.NewAppError("INGEST", fmt.Sprintf("%s holds %d .eml files; pass one with --eml", o.dir, len(found.Emails)), common.ErrInvalidInput)
		}
		if emlURI == "" && len(found.Emails) == 1 {
			emlURI = found.Emails[0]
		}
		pdfURIs = append(pdfURIs, found.PDFs...)
	}

	loader, err := app.NewLoader(ctx, c.cfg.S3, c.logger)
	if err != nil {
		return err
	}

	var intake *pipeline.EmailIntake
	if emlURI != "" {
		src, err := loader.Load(ctx, emlURI)
		if err != nil {
			return err
		}
		if src.Format != constants.EMAIL {
			return common.NewAppError("INGEST", fmt.Sprintf("%s is not an .eml file", emlURI), common.ErrInvalidInput)
		}
		intake = pipeline.LoadEmail(src.Data, c.logger)
		if intake.Warning != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", intake.Warning)
		}
	}

	sources, err := ingest.LoadAll(ctx, loader, pdfURIs)
	if err != nil {
		return err
	}
	pdfs := make([]pipeline.PDF, 0, len(sources))
	for _, s := range sources {
		if s.Format != constants.PDF {
			return common.NewAppError("INGEST", fmt.Sprintf("%s is not a PDF", s.URI), common.ErrInvalidInput)
		}
		pdfs = append(pdfs, pipeline.PDF{Filename: s.Name, Data: s.Data})
	}

	req := intake.Request(pdfs)
	if o.bodyFile != "" {
		b, err := os.ReadFile(o.bodyFile)
		if err != nil {
			return err
		}
		req.EmailBody = string(b)
	}
	req.AlreadySummarized = o.alreadySummarized

	res, err := app.NewProcessor(c.cfg, c.logger).Analyze(ctx, req)
	if err != nil {
		return err
	}

	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if err := writeJSON(f, res.Record); err != nil {
			return err
		}
	} else if err := writeJSON(c.stdout, res.Record); err != nil {
		return err
	}

	if o.xlsx != "" {
		b, err := export.NewService(c.logger).RecordXLSX(res.Record)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.xlsx, b, 0o644); err != nil {
			return err
		}
	}

	if o.submit {
		return c.submitRecord(cmd, res.Record)
	}
	return nil
}
