package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
)

// GenericErrorMessage is shown when a failed operation carries no message.
const GenericErrorMessage = "An unexpected error occurred. Please try again."

// LastErrors keeps the most recent failure message per operation until that
// operation next succeeds. The zero value is ready to use.
type LastErrors struct {
	mu   sync.Mutex
	msgs map[model.Operation]string
}

// Record stores the user-facing message of err for op.
func (l *LastErrors) Record(op model.Operation, err error) {
	if err == nil {
		l.Clear(op)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.msgs == nil {
		l.msgs = map[model.Operation]string{}
	}
	l.msgs[op] = errorMessage(err)
}

// Clear drops the slot for op.
func (l *LastErrors) Clear(op model.Operation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.msgs, op)
}

// Get returns the message recorded for op, or "".
func (l *LastErrors) Get(op model.Operation) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.msgs[op]
}

// All returns a copy of every non-empty slot keyed by operation name.
func (l *LastErrors) All() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.msgs))
	for op, msg := range l.msgs {
		out[string(op)] = msg
	}
	return out
}

// errorMessage prefers the AppError message over the full chain.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return appErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
