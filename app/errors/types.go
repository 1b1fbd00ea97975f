// Package errors defines the error taxonomy shared by the exporter packages.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports a feed item that cannot be constructed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// TransportError reports a failed HTTP exchange: network failure, timeout or
// an error status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error for %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResolutionError reports a redirect chain that could not be resolved.
type ResolutionError struct {
	URL     string
	Hops    int
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s after %d hops: %s", e.URL, e.Hops, e.Message)
}

// ProviderError reports an embed provider that failed on a URL.
type ProviderError struct {
	Provider string
	URL      string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for %s: %v", e.Provider, e.URL, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsTransport checks if an error is a TransportError
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsResolution checks if an error is a ResolutionError
func IsResolution(err error) bool {
	var resolutionErr *ResolutionError
	return errors.As(err, &resolutionErr)
}

// IsProvider checks if an error is a ProviderError
func IsProvider(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}
