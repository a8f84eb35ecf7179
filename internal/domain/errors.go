package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds, used for logging and metrics. The HTTP code decides what the
// caller sees; the kind decides what the operator sees.
const (
	KindConfiguration = "configuration"
	KindValidation    = "validation"
	KindGateway       = "gateway"
	KindTimeout       = "timeout"
	KindSignature     = "signature"
	KindPersistence   = "persistence"
	KindInternal      = "internal"
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindValidation, Message: msg}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

// ErrValidation rejects a request before anything is dispatched to the gateway.
func ErrValidation(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: msg}
}

// ErrConfiguration signals missing or invalid gateway credentials. Fatal for
// the attempt and surfaced to the caller.
func ErrConfiguration(msg string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindConfiguration, Message: msg}
}

// ErrGateway wraps a non-success provider response. The provider's reason is
// the user-facing message.
func ErrGateway(msg string, err error) *AppError {
	return &AppError{Code: http.StatusPaymentRequired, Kind: KindGateway, Message: msg, Err: err}
}

// ErrTimeout marks a bounded gateway call that expired. Kept distinct from
// ErrGateway so slow-provider incidents are visible as such.
func ErrTimeout(msg string, err error) *AppError {
	return &AppError{Code: http.StatusGatewayTimeout, Kind: KindTimeout, Message: msg, Err: err}
}

// ErrUnauthorized rejects a request that requires an authenticated buyer.
func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindValidation, Message: msg}
}

// ErrSignature marks a webhook whose signature did not verify.
func ErrSignature(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindSignature, Message: msg}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: msg, Err: err}
}

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
