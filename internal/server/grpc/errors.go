package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC status codes. Messages are fixed
// strings except for validation, whose detail is safe to return.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "could not validate credentials")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, common.ErrorForbidden.Error())
	case errors.Is(err, common.ErrDuplicateUsername):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateUsername.Error())
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
