package errors

import (
	"context"
	"errors"
	"net"

	"github.com/redis/go-redis/v9"
	"github.com/target/bullboard/internal/domain/model"
)

// MapBackendError maps queue backend errors to AppError instances:
// - context timeouts/cancellations → Timeout/Canceled
// - redis.Nil and model.ErrJobNotFound → NotFound
// - model.ErrJobNotFailed, ErrJobLocked, ErrJobExists → Conflict
// - network failures and a closed client → Unavailable
// - other Redis server errors → Internal
//
// AppErrors pass through unchanged; anything else is returned as-is.
func MapBackendError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	}

	if errors.Is(err, model.ErrJobNotFound) || errors.Is(err, redis.Nil) {
		return Wrap(err, ErrCodeNotFound, "Job not found")
	}

	if errors.Is(err, model.ErrJobNotFailed) || errors.Is(err, model.ErrJobLocked) ||
		errors.Is(err, model.ErrJobExists) {
		return Wrap(err, ErrCodeConflict, conflictMessage(err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return Wrap(err, ErrCodeUnavailable, "Queue backend is unavailable. Please try again.")
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return Wrap(err, ErrCodeInternal, "A queue backend error occurred. Please try again.")
	}

	return err
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrJobNotFailed):
		return "Only failed jobs can be retried."
	case errors.Is(err, model.ErrJobLocked):
		return "Job is being processed and cannot be changed."
	default:
		return "A job with this id already exists."
	}
}
