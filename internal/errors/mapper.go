// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/utils/pagination"
)

// FieldError is a validation failure tied to one request field.
// Services return it; Map turns it into InvalidArgument with details.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := "invalid request:"
	for _, k := range keys {
		msg += " " + k + ": " + e.Fields[k] + ";"
	}
	return msg
}

// Field builds a single-field validation error.
func Field(field, msg string) error {
	return &FieldError{Fields: map[string]string{field: msg}}
}

// Fields builds a multi-field validation error.
func Fields(fields map[string]string) error {
	return &FieldError{Fields: fields}
}

// IsDuplicate reports a unique-constraint violation. Requires the gorm
// connection to be opened with TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return invalidFields(fe)

	case errors.Is(err, pagination.ErrInvalidToken):
		return invalidFields(&FieldError{Fields: map[string]string{"pagination_token": err.Error()}})

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}

func invalidFields(fe *FieldError) error {
	st := status.New(codes.InvalidArgument, fe.Error())

	keys := make([]string, 0, len(fe.Fields))
	for k := range fe.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	br := &errdetails.BadRequest{}
	for _, k := range keys {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       k,
			Description: fe.Fields[k],
		})
	}

	withDetails, err := st.WithDetails(br)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}
