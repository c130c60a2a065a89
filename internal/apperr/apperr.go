// Package apperr is the failure taxonomy shared by the session manager, the job
// coordinator and the transport underneath them. Every operation returns either
// a value or an *Error; callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure for handling purposes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
	KindNotFound
	KindNetwork
	KindTimeout
	KindServer

	// Phone verification provider kinds. Class maps them onto the base taxonomy.
	KindInvalidPhoneNumber
	KindRateLimited
	KindProviderUnavailable
	KindInvalidCode
	KindCodeExpired
	KindBackendRejected
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindValidation:          "validation",
	KindUnauthorized:        "unauthorized",
	KindForbidden:           "forbidden",
	KindConflict:            "conflict",
	KindNotFound:            "not_found",
	KindNetwork:             "network",
	KindTimeout:             "timeout",
	KindServer:              "server",
	KindInvalidPhoneNumber:  "invalid_phone_number",
	KindRateLimited:         "rate_limited",
	KindProviderUnavailable: "provider_unavailable",
	KindInvalidCode:         "invalid_code",
	KindCodeExpired:         "code_expired",
	KindBackendRejected:     "backend_rejected",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Class returns the base kind that decides handling policy.
func (k Kind) Class() Kind {
	switch k {
	case KindInvalidPhoneNumber, KindInvalidCode, KindCodeExpired:
		return KindValidation
	case KindRateLimited:
		return KindForbidden
	case KindProviderUnavailable:
		return KindNetwork
	case KindBackendRejected:
		return KindUnauthorized
	}
	return k
}

// Wire codes used by the backend envelope and by the client-side guards.
const (
	CodeAlreadyApplied      = "ALREADY_APPLIED"
	CodeJobNotOpen          = "JOB_NOT_OPEN"
	CodeJobTerminal         = "JOB_TERMINAL"
	CodeEngagementNotActive = "ENGAGEMENT_NOT_ACTIVE"
	CodeProfileIncomplete   = "PROFILE_INCOMPLETE"
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeTimeout             = "TIMEOUT"
	CodeCancelled           = "CANCELLED"
	CodeNetworkError        = "NETWORK_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAuthRequired        = "AUTH_REQUIRED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeServerError         = "SERVER_ERROR"
	CodeInvalidPhoneNumber  = "INVALID_PHONE_NUMBER"
	CodeInvalidCode         = "INVALID_CODE"
	CodeCodeExpired         = "CODE_EXPIRED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeBackendRejected     = "BACKEND_REJECTED"
)

// Error is the single failure value type.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string // operation that failed, e.g. "jobs.Apply"
	Field   string // offending input field for validation failures
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and also on Code when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// At returns a copy of e attributed to op.
func (e *Error) At(op string) *Error {
	cp := *e
	cp.Op = op
	return &cp
}

// Client-side guard failures.
var (
	ErrAlreadyApplied = &Error{Kind: KindConflict, Code: CodeAlreadyApplied,
		Message: "you have already applied to this job"}
	ErrJobNotOpen = &Error{Kind: KindConflict, Code: CodeJobNotOpen,
		Message: "job is not open for applications"}
	ErrJobTerminal = &Error{Kind: KindConflict, Code: CodeJobTerminal,
		Message: "job is already closed or cancelled"}
	ErrEngagementNotActive = &Error{Kind: KindConflict, Code: CodeEngagementNotActive,
		Message: "engagement is not active"}
	ErrProfileIncomplete = &Error{Kind: KindForbidden, Code: CodeProfileIncomplete,
		Message: "complete your profile first"}
	ErrNotAuthenticated = &Error{Kind: KindUnauthorized, Code: CodeNotAuthenticated,
		Message: "sign in first"}
)

// New builds an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches kind and op to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation reports bad input on field. No network call may follow it.
func Validation(op, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidationError,
		Op:      op,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind, either exactly or by class.
func IsKind(err error, kind Kind) bool {
	k := KindOf(err)
	if k == KindUnknown {
		return false
	}
	return k == kind || k.Class() == kind
}

// IsAuth reports whether err must route the client to re-authentication.
func IsAuth(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// Retryable reports whether the user may safely retry by hand.
func Retryable(err error) bool {
	switch KindOf(err).Class() {
	case KindNetwork, KindTimeout:
		return true
	}
	return false
}

var authCodes = map[string]bool{
	CodeUnauthorized: true,
	CodeTokenExpired: true,
	CodeInvalidToken: true,
	CodeAuthRequired: true,
}

// FromResponse maps an HTTP status plus the envelope's code and message.
// The envelope code wins over the status where it names an auth failure or a
// known conflict so that a 200 carrying success=false still classifies.
func FromResponse(op string, status int, code, message string) *Error {
	code = strings.ToUpper(strings.TrimSpace(code))
	e := &Error{Op: op, Code: code, Message: message}

	switch {
	case authCodes[code]:
		e.Kind = KindUnauthorized
		return e
	case code == CodeAlreadyApplied || code == CodeJobNotOpen || code == CodeConflict:
		e.Kind = KindConflict
		return e
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Kind = KindTimeout
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500:
		e.Kind = KindServer
	case code == CodeForbidden:
		e.Kind = KindForbidden
	case code == CodeNotFound:
		e.Kind = KindNotFound
	case code == CodeValidationError:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	if e.Code == "" {
		e.Code = defaultCode(e.Kind)
	}
	return e
}

func defaultCode(k Kind) string {
	switch k {
	case KindValidation:
		return CodeValidationError
	case KindUnauthorized:
		return CodeUnauthorized
	case KindForbidden:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	case KindConflict:
		return CodeConflict
	case KindTimeout:
		return CodeTimeout
	case KindRateLimited:
		return CodeRateLimited
	}
	return CodeServerError
}
