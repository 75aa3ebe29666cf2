package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
)

var codeOf = []struct {
	err  error
	code codes.Code
}{
	{errs.ErrCannotTransferToSelf, codes.FailedPrecondition},
	{errs.ErrTypeMismatch, codes.FailedPrecondition},
	{errs.ErrSuperseded, codes.FailedPrecondition},
	{errs.ErrUnauthorizedAccount, codes.PermissionDenied},
	{errs.ErrNotOwner, codes.PermissionDenied},
	{errs.ErrNotFound, codes.NotFound},
	{errs.ErrAlreadyExists, codes.AlreadyExists},
	{errs.ErrInvalidArgument, codes.InvalidArgument},
	{errs.ErrUnauthorized, codes.Unauthenticated},
	{errs.ErrRateLimited, codes.ResourceExhausted},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// toStatus maps a service error to a gRPC status. Unclassified errors become
// Internal and keep the operation name for the log line.
func toStatus(op string, err error) error {
	for _, c := range codeOf {
		if errors.Is(err, c.err) {
			if c.code == codes.Unauthenticated {
				return status.Error(c.code, "bad credentials")
			}
			return status.Error(c.code, err.Error())
		}
	}
	return status.Errorf(codes.Internal, "%s: %v", op, err)
}
