package shared

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrConflict indicates a uniqueness violation (duplicate email, duplicate enrollment).
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrCSRFOrigin occurs when a mutating request comes from a foreign origin.
	ErrCSRFOrigin = errors.New("csrf protection: invalid origin")
)

// AccessKind classifies a rejection produced by the session/authorization core.
type AccessKind int

const (
	KindUnauthenticated AccessKind = iota + 1
	KindForbidden
	KindNotFound
	KindSelfAction
)

// Status maps the kind onto its HTTP status code.
func (k AccessKind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindSelfAction:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k AccessKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindSelfAction:
		return "self_action_forbidden"
	default:
		return "unknown"
	}
}

// Rejection messages shown to callers.
const (
	MsgNoToken        = "No token provided. Please authenticate."
	MsgInvalidToken   = "Invalid or expired token. Please login again."
	MsgForbidden      = "Forbidden. You do not have permission to access this resource."
	MsgSelfDeletion   = "Cannot delete your own account"
	MsgNotFoundSuffix = " not found"
)

// AccessError is a terminal, caller-safe rejection. Message is shown to the client,
// Detail is optional debugging context (never secrets), Err is kept for logs only.
type AccessError struct {
	Kind    AccessKind
	Message string
	Detail  string
	Err     error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *AccessError) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the rejection.
func (e *AccessError) Status() int { return e.Kind.Status() }

// Unauthenticated builds a 401 rejection.
func Unauthenticated(message string, cause error) *AccessError {
	return &AccessError{Kind: KindUnauthenticated, Message: message, Err: cause}
}

// Forbidden builds a 403 rejection.
func Forbidden(message, detail string) *AccessError {
	if message == "" {
		message = MsgForbidden
	}
	return &AccessError{Kind: KindForbidden, Message: message, Detail: detail}
}

// NotFound builds a 404 rejection for the named resource.
func NotFound(resource string) *AccessError {
	return &AccessError{Kind: KindNotFound, Message: resource + MsgNotFoundSuffix, Err: ErrNotFound}
}

// SelfActionForbidden builds the self-deletion rejection.
func SelfActionForbidden(message string) *AccessError {
	if message == "" {
		message = MsgSelfDeletion
	}
	return &AccessError{Kind: KindSelfAction, Message: message}
}

// AsAccessError unwraps err into an *AccessError when possible.
func AsAccessError(err error) (*AccessError, bool) {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err is an AccessError of the given kind.
func IsKind(err error, kind AccessKind) bool {
	ae, ok := AsAccessError(err)
	return ok && ae.Kind == kind
}
