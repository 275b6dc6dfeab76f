package entity

// DomainError is the error type raised by entity constructors and state
// transitions. It carries a stable machine code (the vocabulary persisted in
// job last_error payloads) and optionally wraps one of the package
// errors/domain sentinels so callers can branch with errors.Is.
type DomainError struct {
	message string
	code    string
	cause   error
}

// NewDomainError creates a domain error with no underlying sentinel.
func NewDomainError(message, code string) *DomainError {
	return &DomainError{
		message: message,
		code:    code,
	}
}

// WrapDomainError creates a domain error wrapping a sentinel cause.
func WrapDomainError(message, code string, cause error) *DomainError {
	return &DomainError{
		message: message,
		code:    code,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the sentinel cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Code returns the stable machine code.
func (e *DomainError) Code() string {
	return e.code
}

// Message returns the error message without the cause.
func (e *DomainError) Message() string {
	return e.message
}
