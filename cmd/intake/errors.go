package main

import (
	"errors"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
)

// userMessage prefers the category hint for extraction failures.
func userMessage(err error) string {
	var ee *llm.ExtractionError
	if errors.As(err, &ee) {
		return ee.UserMessage()
	}
	return common.UserMessage(err)
}
