package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
	"github.com/joseph-ayodele/submission-intake/internal/submission"
)

// toStatus maps domain errors to gRPC status errors carrying the user-facing message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ee *llm.ExtractionError
	var declined *submission.DeclinedError
	var transport *submission.TransportError
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return common.InvalidArgumentError(common.UserMessage(err))
	case errors.Is(err, common.ErrNotFound):
		return common.NotFoundError(common.UserMessage(err))
	case errors.As(err, &ee):
		switch ee.Kind {
		case llm.KindQuota:
			return common.ResourceExhaustedError(ee.UserMessage())
		case llm.KindAuth:
			return common.UnauthenticatedError(ee.UserMessage())
		case llm.KindNetwork:
			return common.UnavailableError(ee.UserMessage())
		}
		return common.InternalError(ee.UserMessage())
	case errors.Is(err, common.ErrUnauthorized):
		return common.UnauthenticatedError(common.UserMessage(err))
	case errors.As(err, &declined):
		return common.FailedPreconditionError(declined.Error())
	case errors.As(err, &transport):
		if transport.Retryable {
			return common.UnavailableError(transport.Error())
		}
		return common.InternalError(transport.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	}
	return common.InternalError(err.Error())
}
