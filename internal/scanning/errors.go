package scanning

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrEmptyFile is returned for files without content
	ErrEmptyFile = errors.New("file is empty")
	// ErrEmptyResponse is returned when the model answered without content
	ErrEmptyResponse = errors.New("empty response from model")
)

// ParseError reports a response that does not match the declared structure
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing receipt data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ServiceError is a failed call to a model service.
// Status carries a symbolic status such as "UNKNOWN" when one is known.
type ServiceError struct {
	Status  string
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	switch {
	case e.Status != "" && e.Code != 0:
		return fmt.Sprintf("model service error (%s, status %d): %s", e.Status, e.Code, e.Message)
	case e.Code != 0:
		return fmt.Sprintf("model service error (status %d): %s", e.Code, e.Message)
	case e.Status != "":
		return fmt.Sprintf("model service error (%s): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("model service error: %s", e.Message)
	}
}

// IsTransient reports whether err is worth retrying: an unknown-status
// signal, a 5xx code, or a transport-level xhr error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrEmptyFile) {
		return false
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if strings.EqualFold(svcErr.Status, "UNKNOWN") || is5xx(svcErr.Code) {
			return true
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && is5xx(apiErr.Code) {
		return true
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unknown, codes.Internal, codes.Unavailable:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "xhr error")
}

func is5xx(code int) bool {
	return code >= 500 && code < 600
}

// Kind names the failure class of err for logs
func Kind(err error) string {
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.As(err, &parseErr):
		return "parse"
	case IsTransient(err):
		return "transient"
	default:
		return "other"
	}
}
