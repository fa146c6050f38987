package models

import "fmt"

// Error codes that form the contract surface of the endpoint.
const (
	CodeUnsupportedLiteRequest  = "UNSUPPORTED_SELF_REGISTER_LITE_REQUEST"
	CodeBadSelfRegisterRequest  = "BAD_SELF_REGISTER_REQUEST"
	CodeUserAlreadyExists       = "USER_ALREADY_EXISTS"
	CodeUnexpected              = "UNEXPECTED"
	CodeSelfRegistrationOff     = "SELF_REGISTRATION_DISABLED"
	CodeInvalidEmailUsername    = "INVALID_EMAIL_USERNAME"
	CodeInvalidUserStoreDomain  = "INVALID_USER_STORE_DOMAIN"
	CodeRegistrationStoreFailed = "REGISTRATION_STORE_FAILURE"
	CodeNotificationFailed      = "NOTIFICATION_DISPATCH_FAILED"
)

// Messages paired with the codes above.
const (
	MsgUnsupportedLiteRequest = "Self registration lite is not supported when email as username is disabled."
	MsgBadSelfRegisterRequest = "Bad self registration request. Email is required."
	MsgUserAlreadyExists      = "User already exists in the system."

	// MsgServerError is the only message callers see for server-side faults.
	MsgServerError = "Error occurred in the server while performing the task."
)

// ---------------------------------------------------------------------------
// Gateway failures
// ---------------------------------------------------------------------------

// GatewayErrorKind tags the variants of GatewayError.
type GatewayErrorKind int

const (
	// ClientFailure is a caller-correctable failure, e.g. USER_ALREADY_EXISTS.
	ClientFailure GatewayErrorKind = iota + 1
	// DomainFailure is a recoverable platform-side domain failure.
	DomainFailure
	// UnexpectedFailure is any uncaught fault.
	UnexpectedFailure
)

func (k GatewayErrorKind) String() string {
	switch k {
	case ClientFailure:
		return "client_failure"
	case DomainFailure:
		return "domain_failure"
	case UnexpectedFailure:
		return "unexpected_failure"
	default:
		return fmt.Sprintf("gateway_error_kind(%d)", int(k))
	}
}

// GatewayError is the tagged union a RegistrationGateway fails with.
// Cause is set for UnexpectedFailure and may be set for the other kinds.
type GatewayError struct {
	Kind    GatewayErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// NewClientFailure builds a ClientFailure gateway error.
func NewClientFailure(code, message string) *GatewayError {
	return &GatewayError{Kind: ClientFailure, Code: code, Message: message}
}

// NewDomainFailure builds a DomainFailure gateway error.
func NewDomainFailure(code, message string, cause error) *GatewayError {
	return &GatewayError{Kind: DomainFailure, Code: code, Message: message, Cause: cause}
}

// NewUnexpectedFailure builds an UnexpectedFailure gateway error.
func NewUnexpectedFailure(cause error) *GatewayError {
	return &GatewayError{Kind: UnexpectedFailure, Cause: cause}
}

// ---------------------------------------------------------------------------
// Registration failures (what callers observe)
// ---------------------------------------------------------------------------

// FailureKind tags the variants of Failure.
type FailureKind int

const (
	// ClientError: malformed or unsupported request.
	ClientError FailureKind = iota + 1
	// Conflict: the identity already exists.
	Conflict
	// ServerError: platform failure or unexpected fault.
	ServerError
)

func (k FailureKind) String() string {
	switch k {
	case ClientError:
		return "client_error"
	case Conflict:
		return "conflict"
	case ServerError:
		return "server_error"
	default:
		return fmt.Sprintf("failure_kind(%d)", int(k))
	}
}

// Failure is a terminal registration failure. Code is the contract surface;
// Message is human readable and safe to return to the caller.
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.Kind, f.Code, f.Message)
}

// NewClientError builds a ClientError failure.
func NewClientError(code, message string) *Failure {
	return &Failure{Kind: ClientError, Code: code, Message: message}
}

// NewConflict builds a Conflict failure.
func NewConflict(code, message string) *Failure {
	return &Failure{Kind: Conflict, Code: code, Message: message}
}

// NewServerError builds a ServerError failure.
func NewServerError(code, message string) *Failure {
	return &Failure{Kind: ServerError, Code: code, Message: message}
}
