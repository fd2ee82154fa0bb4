package txerror

import (
	"errors"
	"fmt"
)

// Code identifies a transaction pipeline failure. Codes are stable: they are
// persisted in metrics labels and surfaced through the API layer, so existing
// values must never be renamed.
type Code string

const (
	CodeUnknownType               Code = "unknown_type"
	CodeMissingSender             Code = "missing_sender"
	CodeInvalidSenderPublicKey    Code = "invalid_sender_public_key"
	CodeInvalidSenderAddress      Code = "invalid_sender_address"
	CodeInvalidRequesterPublicKey Code = "invalid_requester_public_key"
	CodeFailedSignature           Code = "failed_signature"
	CodeFailedSecondSignature     Code = "failed_second_signature"
	CodeDuplicateSignature        Code = "duplicate_signature"
	CodeFailedMultisignature      Code = "failed_multisignature"
	CodeInvalidFee                Code = "invalid_fee"
	CodeInvalidAmount             Code = "invalid_amount"
	CodeInvalidTimestamp          Code = "invalid_timestamp"
	CodeMalformedTransaction      Code = "malformed_transaction"
	CodeInsufficientBalance       Code = "insufficient_balance"
	CodeNotReady                  Code = "not_ready"
	CodeAlreadyConfirmed          Code = "already_confirmed"
	CodeHandlerError              Code = "handler_error"
	CodeStoreError                Code = "store_error"
)

// Error is a transaction pipeline error with a stable code and a
// human-readable message. The wrapped cause, when present, is reachable
// through errors.Unwrap.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error, keeping the cause unwrappable.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the pipeline code from err, or CodeHandlerError when err is
// not a coded error. Handler-specific failures surface verbatim, so anything
// uncoded that escapes a handler is classified as a handler error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeHandlerError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
