package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
)

// PDF is one document to analyze.
type PDF struct {
	Filename string
	Data     []byte
}

// EncodePDFs turns every PDF into a content part concurrently. Output order matches input.
// One bad file fails the whole batch.
func EncodePDFs(ctx context.Context, pdfs []PDF) ([]llm.ContentPart, error) {
	parts := make([]llm.ContentPart, len(pdfs))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range pdfs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := checkPDF(p); err != nil {
				return err
			}
			parts[i] = llm.PDFPart(p.Filename, base64.StdEncoding.EncodeToString(p.Data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func checkPDF(p PDF) error {
	switch {
	case len(p.Data) == 0:
		return common.NewAppError("INVALID_PDF", fmt.Sprintf("%s is empty", p.Filename), common.ErrValidation)
	case len(p.Data) > constants.MaxPDFBytes:
		return common.NewAppError("PDF_TOO_LARGE",
			fmt.Sprintf("%s is %d bytes; the limit is %d", p.Filename, len(p.Data), constants.MaxPDFBytes),
			common.ErrValidation)
	case !bytes.HasPrefix(bytes.TrimLeft(p.Data, "\x00\t\r\n "), []byte("%PDF")):
		return common.NewAppError("INVALID_PDF", fmt.Sprintf("%s is not a PDF", p.Filename), common.ErrValidation)
	}
	return nil
}
