package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mahenzon/todo-app/internal/errs"
)

// errAutoCancelled is the cancel cause of a read superseded by a newer one with the same key.
var errAutoCancelled = errors.New("request auto-cancelled")

// ResponseError is the error of every failed record service call.
type ResponseError struct {
	Code    codes.Code
	Message string
	// Abort marks requests that were superseded or cancelled rather than rejected.
	Abort bool
}

func (e *ResponseError) Error() string {
	if e.Abort {
		return "request aborted: " + e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps the status code to the shared sentinels so callers can use errors.Is.
func (e *ResponseError) Unwrap() error {
	switch e.Code {
	case codes.InvalidArgument:
		return errs.ErrValidation
	case codes.NotFound:
		return errs.ErrNotFound
	case codes.PermissionDenied:
		return errs.ErrForbidden
	case codes.Unauthenticated:
		return errs.ErrUnauthorized
	case codes.ResourceExhausted:
		return errs.ErrRateLimited
	case codes.AlreadyExists:
		return errs.ErrAlreadyExists
	case codes.FailedPrecondition:
		return errs.ErrVersionConflict
	}
	return nil
}

// IsAbort reports whether err is a superseded or cancelled request.
func IsAbort(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Abort
}

// responseError wraps a call error; ctx is the context the call ran with.
func responseError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), errAutoCancelled) {
		return &ResponseError{Code: codes.Canceled, Message: errAutoCancelled.Error(), Abort: true}
	}
	st := status.Convert(err)
	re := &ResponseError{Code: st.Code(), Message: st.Message()}
	if st.Code() == codes.Canceled || errors.Is(err, context.Canceled) {
		re.Code, re.Abort = codes.Canceled, true
	}
	return re
}
