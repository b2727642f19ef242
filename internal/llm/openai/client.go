package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/submission-intake/internal/llm"
)

var _ llm.Extractor = (*Client)(nil)

// Extract sends the parts as one user message with the schema as a json_schema response
// format. The reply is validated locally; when validation fails and the request carries a
// sanitizer, the sanitized document is validated once more before giving up.
func (c *Client) Extract(ctx context.Context, req llm.ExtractionRequest) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	var pdfs, textLen int
	content := make([]map[string]any, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch p.Kind {
		case llm.PartPDF:
			pdfs++
			content = append(content, map[string]any{
				"type": "file",
				"file": map[string]any{
					"filename":  p.Filename,
					"file_data": "data:application/pdf;base64," + p.Base64,
				},
			})
		case llm.PartText:
			textLen += len(p.Text)
			content = append(content, map[string]any{"type": "text", "text": p.Text})
		}
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"schema", req.Name,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"pdf_parts", pdfs,
		"text_len", textLen,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Name,
				"schema": req.Schema,
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": req.Instructions},
			{"role": "user", "content": content},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, llm.ErrEmptyResponse
	}
	choice := cc.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	if choice.FinishReason == "length" {
		return nil, fmt.Errorf("response truncated: maximum context length reached")
	}
	rawContent := []byte(strings.TrimSpace(choice.Message.Content))
	if len(rawContent) == 0 {
		c.log.Error("llm.extract.empty_content", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, llm.ErrEmptyResponse
	}

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(req.Schema, rawContent); err != nil {
		if c.cfg.Strict || req.Sanitize == nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, changes, sErr := req.Sanitize(rawContent, c.log)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(req.Schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "after_sanitize", true,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "changes", len(changes),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"schema", req.Name,
		"bytes", len(rawContent),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rawContent, nil
}
