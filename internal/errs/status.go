package errs

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// wire lists the sentinels that cross the gRPC boundary. The status message
// carries the sentinel text so codes shared by several sentinels stay distinct.
var wire = []struct {
	err  error
	code codes.Code
}{
	{ErrNotFound, codes.NotFound},
	{ErrForbidden, codes.PermissionDenied},
	{ErrInvalidCredentials, codes.Unauthenticated},
	{ErrNotSignedIn, codes.Unauthenticated},
	{ErrEmailInUse, codes.AlreadyExists},
	{ErrWeakPassword, codes.InvalidArgument},
	{ErrRateLimited, codes.ResourceExhausted},
}

// ToStatus converts a service error into a gRPC status error.
// Unknown errors become codes.Internal without leaking their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	if errors.Is(err, ErrValidation) {
		return status.Error(codes.InvalidArgument, "All fields are required")
	}
	for _, w := range wire {
		if errors.Is(err, w.err) {
			return status.Error(w.code, w.err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	return status.Error(codes.Internal, "internal")
}

// FromStatus converts a gRPC error back into a sentinel.
// Transport failures map to ErrUnavailable.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, w := range wire {
		if st.Code() == w.code && st.Message() == w.err.Error() {
			return w.err
		}
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return Validation(st.Message())
	case codes.NotFound:
		return ErrNotFound
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.Unauthenticated:
		return ErrNotSignedIn
	case codes.AlreadyExists:
		return ErrEmailInUse
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Aborted:
		return errors.Join(ErrUnavailable, err)
	}
	return err
}
