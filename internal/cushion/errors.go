package cushion

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindValidation
	KindInvocation
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindInvocation:
		return "invocation"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

const (
	ReasonMissingCredential   = "missing provider credential"
	ReasonEmptyInput          = "empty input"
	ReasonMalformedImage      = "malformed image"
	ReasonProviderUnavailable = "provider unavailable"
	ReasonProviderError       = "provider error"
	ReasonInvalidJSON         = "invalid JSON"
	reasonSchemaViolation     = "schema violation"
)

// Error is the single failure type returned by every pipeline stage.
// Reason is a short stable string; Err keeps the underlying cause for logs.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ConfigurationError(reason string) *Error {
	return &Error{Kind: KindConfiguration, Reason: reason}
}

func ValidationError(reason string, err error) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Err: err}
}

func InvocationError(reason string, err error) *Error {
	return &Error{Kind: KindInvocation, Reason: reason, Err: err}
}

func ParseError(reason string, err error) *Error {
	return &Error{Kind: KindParse, Reason: reason, Err: err}
}

// SchemaViolation reports a missing or wrongly typed result field.
func SchemaViolation(field string) *Error {
	return &Error{Kind: KindParse, Reason: reasonSchemaViolation + ": " + field}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf returns the reason of the first *Error in err's chain, or "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
