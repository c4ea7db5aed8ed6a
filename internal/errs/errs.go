package errs

import (
	"errors"
	"net/http"
)

// Error codes returned in the "error" field of failure responses. Clients
// branch on these, so they are part of the wire contract.
const (
	CodeInvalid            = "Error_Invalid"
	CodeUnauthenticated    = "Error_Unauthenticated"
	CodeAccessTokenExpired = "Error_AccessTokenExpired"
	CodeAttack             = "Error_Attack"
	CodeOverLimit          = "Error_OverLimit"
	CodeOtpExpired         = "Error_OtpExpired"
	CodeRequestExpired     = "Error_RequestExpired"
	CodeAccountFreeze      = "Error_AccountFreeze"
	CodeUnauthorized       = "Error_Unauthorized"
	CodeAlreadyExist       = "Error_AlreadyExist"
	CodeNotFound           = "Error_NotFound"
	CodeInternal           = "Error_Internal"
)

// Error carries a machine-readable code and the HTTP status the handler
// layer should respond with.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func Invalid(message string) *Error {
	return New(CodeInvalid, message, http.StatusBadRequest)
}

func Unauthenticated(message string) *Error {
	return New(CodeUnauthenticated, message, http.StatusUnauthorized)
}

func AccessTokenExpired(message string) *Error {
	return New(CodeAccessTokenExpired, message, http.StatusUnauthorized)
}

func Attack(message string) *Error {
	return New(CodeAttack, message, http.StatusBadRequest)
}

func OverLimit(message string) *Error {
	return New(CodeOverLimit, message, http.StatusMethodNotAllowed)
}

func OtpExpired(message string) *Error {
	return New(CodeOtpExpired, message, http.StatusForbidden)
}

func RequestExpired(message string) *Error {
	return New(CodeRequestExpired, message, http.StatusForbidden)
}

func AccountFreeze(message string) *Error {
	return New(CodeAccountFreeze, message, http.StatusForbidden)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message, http.StatusForbidden)
}

func AlreadyExist(message string) *Error {
	return New(CodeAlreadyExist, message, http.StatusConflict)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// From normalizes any error into an *Error. Unclassified errors become an
// internal server error so repository failures never leak details.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(CodeInternal, "Something went wrong.", http.StatusInternalServerError)
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
