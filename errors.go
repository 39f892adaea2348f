package esewa

import "errors"

// ValidationError reports an input that failed a precondition. It is always
// returned before any network call is attempted and never wraps a transport
// failure.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// PaymentRequestError reports a failure during or because of the network call
// to the gateway: connection errors, timeouts, non-2xx responses.
type PaymentRequestError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PaymentRequestError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

// Unwrap allows errors.Is/As to inspect the underlying transport error.
func (e *PaymentRequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsValidationError checks whether the error is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPaymentRequestError checks whether the error is a PaymentRequestError.
func IsPaymentRequestError(err error) bool {
	var target *PaymentRequestError
	return errors.As(err, &target)
}
