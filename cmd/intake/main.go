package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/submission-intake/internal/app"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

type cli struct {
	configPath string
	cfg        *common.Config
	logger     *slog.Logger
	stdout     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{stdout: stdout}
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Extract, review and submit insurance quote requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = app.NewLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(c.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("INTAKE_CONFIG"), "YAML config file (env overrides apply on top)")
	root.AddCommand(newAnalyzeCmd(c), newSubmitCmd(c), newExportCmd(c))
	return root
}

func readRecord(path string) (*entity.QuoteRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rec := entity.NewQuoteRecord()
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, common.NewAppError("INVALID_RECORD", fmt.Sprintf("%s is not a quote record", path), err)
	}
	if rec.ParsingNotes == nil {
		rec.ParsingNotes = entity.Notes{}
	}
	return rec, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
