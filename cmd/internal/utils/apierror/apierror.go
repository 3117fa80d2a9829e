package apierror

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"net/http"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindUnavailable  Kind = "storage_unavailable"
	KindInternal     Kind = "internal"
)

// ErrorResponse is what every service operation returns on failure.
// It doubles as the JSON body written back to the client.
type ErrorResponse interface {
	error
	Code() int
	Kind() Kind
}

type APIError struct {
	Status  int               `json:"status"`
	Type    Kind              `json:"type"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Code() int {
	return e.Status
}

func (e *APIError) Kind() Kind {
	return e.Type
}

// Is matches any APIError of the same kind, so errors.Is(err, apierror.ForbiddenError)
// holds for every forbidden error regardless of its message.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.Type == e.Type
}

var (
	InternalServerError     = &APIError{Status: http.StatusInternalServerError, Type: KindInternal, Message: "Internal server error"}
	StorageUnavailableError = &APIError{Status: http.StatusServiceUnavailable, Type: KindUnavailable, Message: "Storage is unavailable, try again later"}
	NotFoundError           = &APIError{Status: http.StatusNotFound, Type: KindNotFound, Message: "Resource not found"}
	ForbiddenError          = &APIError{Status: http.StatusForbidden, Type: KindForbidden, Message: "Not allowed"}
	ConflictError           = &APIError{Status: http.StatusConflict, Type: KindConflict, Message: "Resource is not in a state that allows this operation"}
	MalformedBodyError      = &APIError{Status: http.StatusBadRequest, Type: KindValidation, Message: "Malformed request body"}
	InvalidAuthTokenError   = &APIError{Status: http.StatusUnauthorized, Type: KindUnauthorized, Message: "Missing or invalid auth token"}
)

func NewSimple(code int, msg string) *APIError {
	return &APIError{Status: code, Type: kindFor(code), Message: msg}
}

func NotFound(msg string) *APIError {
	return NewSimple(http.StatusNotFound, msg)
}

func Forbidden(msg string) *APIError {
	return NewSimple(http.StatusForbidden, msg)
}

func Conflict(msg string) *APIError {
	return NewSimple(http.StatusConflict, msg)
}

func Validation(msg string) *APIError {
	return NewSimple(http.StatusBadRequest, msg)
}

func NewMissingParamError(name string) *APIError {
	return Validation(fmt.Sprintf("Missing required parameter '%s'", name))
}

func NewInvalidParamTypeError(name, expected string) *APIError {
	return Validation(fmt.Sprintf("Parameter '%s' must be %s", name, expected))
}

func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields[fe.Field()] = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		} else {
			fields[fe.Field()] = fe.Tag()
		}
	}

	return &APIError{
		Status:  http.StatusBadRequest,
		Type:    KindValidation,
		Message: "Request failed validation",
		Fields:  fields,
	}
}

// FromError passes typed errors through and turns anything else into
// StorageUnavailableError, logging the cause.
func FromError(err error) ErrorResponse {
	if err == nil {
		return nil
	}

	var apierr ErrorResponse
	if errors.As(err, &apierr) {
		return apierr
	}

	log.Errorf("storage failure: %v", err)
	return StorageUnavailableError
}

func kindFor(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}
