package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies a provider failure. The code is assigned where the
// SDK or HTTP error is first seen, so callers never match on message text.
type ErrorCode string

const (
	CodeRateLimit ErrorCode = "rate_limit"
	CodeAuth      ErrorCode = "auth"
	CodeTimeout   ErrorCode = "timeout"
	CodeGeneric   ErrorCode = "generic"
)

// ProviderError wraps a provider failure with its origin and class.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: provider error (%s)", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Classify normalizes err into a ProviderError attributed to provider.
// Errors already carrying a code pass through unchanged.
func Classify(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	code := CodeGeneric
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		code = CodeTimeout
	}

	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  err.Error(),
		Err:      err,
	}
}

// codeFromStatus maps an HTTP status to the failure class.
func codeFromStatus(status int) ErrorCode {
	switch {
	case status == 429:
		return CodeRateLimit
	case status == 401 || status == 403:
		return CodeAuth
	case status == 408 || status == 504:
		return CodeTimeout
	default:
		return CodeGeneric
	}
}
