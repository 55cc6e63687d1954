package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Backend error codes. The vocabulary follows the hosted auth provider the
// storefront originally talked to, so clients can keep one message table.
const (
	CodeEmailInUse       = "auth/email-already-in-use"
	CodeInvalidEmail     = "auth/invalid-email"
	CodeNotAllowed       = "auth/operation-not-allowed"
	CodeWeakPassword     = "auth/weak-password"
	CodeUserDisabled     = "auth/user-disabled"
	CodeUserNotFound     = "auth/user-not-found"
	CodeWrongPassword    = "auth/wrong-password"
	CodeInvalidCred      = "auth/invalid-credential"
	CodeTooManyRequests  = "auth/too-many-requests"
	CodeNetwork          = "auth/network-request-failed"
	CodeInvalidToken     = "auth/invalid-token"
	CodeProfileNotFound  = "profile/not-found"
	CodeBadRequest       = "request/bad-request"
	CodeValidation       = "request/validation-failed"
	CodeInternal         = "server/internal"
	CodeCatalogDown      = "catalog/unavailable"
	CodeCatalogUpstream  = "catalog/upstream-error"
	CodeSessionLoading   = "session/loading"
	CodeUnauthenticated  = "session/unauthenticated"
	CodeUnknownList      = "lists/unknown-list"
	CodeStorageFailure   = "lists/storage-failure"
	CodeServiceForbidden = "service/forbidden"
)

const GenericMessage = "An error occurred. Please try again."

var messages = map[string]string{
	CodeEmailInUse:      "Email already exists. Please use a different email or sign in.",
	CodeInvalidEmail:    "Invalid email address. Please enter a valid email.",
	CodeNotAllowed:      "Email/password accounts are not enabled. Please contact support.",
	CodeWeakPassword:    "Password is too weak. Please choose a stronger password.",
	CodeUserDisabled:    "This account has been disabled. Please contact support.",
	CodeUserNotFound:    "No account found with this email address.",
	CodeWrongPassword:   "Incorrect password. Please try again.",
	CodeInvalidCred:     "Invalid email or password. Please try again.",
	CodeTooManyRequests: "Too many failed attempts. Please try again later.",
	CodeNetwork:         "Network error. Please check your internet connection.",
	CodeCatalogDown:     "Failed to fetch products",
	CodeCatalogUpstream: "Failed to fetch products",
	CodeStorageFailure:  "Could not save your list. Please try again.",
	CodeUnauthenticated: "Please sign in to continue.",
}

// Error is a coded failure coming from a backend call or a request boundary.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, msg string) *Error {
	return &Error{Code: code, Message: msg, Status: status}
}

// Network marks a transport failure talking to a backend.
func Network(err error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "backend unreachable",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Internal(err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CodeOf returns the code carried by err, or "" when err is not coded.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// StatusOf maps err to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// UserMessage turns err into the single message shown to a shopper.
// Codes without a table entry fall back to GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := messages[CodeOf(err)]; ok {
		return msg
	}
	return GenericMessage
}
