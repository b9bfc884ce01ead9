package grpccas

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/udigest/storage"
)

// Storage sentinels travel as status codes: NotFound, InvalidArgument for a
// malformed CID, DataLoss for a hash mismatch and AlreadyExists for an
// immutability violation.
var codeOf = []struct {
	err  error
	code codes.Code
}{
	{storage.ErrNotFound, codes.NotFound},
	{storage.ErrInvalidCID, codes.InvalidArgument},
	{storage.ErrCIDMismatch, codes.DataLoss},
	{storage.ErrImmutable, codes.AlreadyExists},
}

func toStatus(err error) error {
	for _, m := range codeOf {
		if errors.Is(err, m.err) {
			return status.Error(m.code, m.err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, m := range codeOf {
		if st.Code() == m.code || st.Message() == m.err.Error() {
			return m.err
		}
	}
	return err
}
