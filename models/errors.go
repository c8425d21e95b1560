// ABOUTME: Error taxonomy shared by providers, the sync engine, and the HTTP layer
// ABOUTME: Distinguishes configuration problems from provider-side failures
package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports a missing grant, API key, or integration record.
// It is never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IntegrationError reports a non-success response from a calendar provider.
type IntegrationError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Body       string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Provider, e.Op, e.StatusCode, e.Body)
}

// IsNotFound reports whether the provider answered 404.
func (e *IntegrationError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err wraps an IntegrationError with a 404 status.
func IsNotFound(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie) && ie.IsNotFound()
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsIntegrationError reports whether err wraps an IntegrationError.
func IsIntegrationError(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie)
}
