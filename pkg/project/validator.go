package project

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation failure with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validHTTPMethods are the methods an endpoint may be registered under.
var validHTTPMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// ValidateEndpoint checks a single endpoint definition.
// The method is compared upper-cased; callers should normalize before storing.
func ValidateEndpoint(e *Endpoint) error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if !validHTTPMethods[strings.ToUpper(e.Method)] {
		return &ValidationError{Field: "method", Message: fmt.Sprintf("unsupported HTTP method: %s", e.Method)}
	}
	if !strings.HasPrefix(e.Path, "/") {
		return &ValidationError{Field: "path", Message: "path must start with /"}
	}
	if e.Status < 100 || e.Status > 599 {
		return &ValidationError{Field: "status", Message: "status must be between 100 and 599"}
	}
	if e.DelayMs < 0 {
		return &ValidationError{Field: "delay", Message: "delay must not be negative"}
	}
	return nil
}

// ValidateSettings checks listener settings.
func ValidateSettings(s *ServerSettings) error {
	if s.Port < 1 || s.Port > 65535 {
		return &ValidationError{Field: "port", Message: "port must be between 1 and 65535"}
	}
	return nil
}

// ValidateTLS checks that a TLS config is either absent or fully specified.
func ValidateTLS(c *TLSConfig) error {
	if c == nil {
		return nil
	}
	if c.CertPath == "" {
		return &ValidationError{Field: "cert_path", Message: "cert_path is required"}
	}
	if c.KeyPath == "" {
		return &ValidationError{Field: "key_path", Message: "key_path is required"}
	}
	return nil
}

// ValidateState checks a full project snapshot before it is submitted to
// the store. Endpoint ids must be unique within the snapshot; duplicate
// (method, path) pairs are allowed and resolve by first match.
func ValidateState(st *State) error {
	seen := make(map[string]bool, len(st.Endpoints))
	for i := range st.Endpoints {
		e := &st.Endpoints[i]
		if err := ValidateEndpoint(e); err != nil {
			return err
		}
		if seen[e.ID] {
			return &ValidationError{Field: "id", Message: fmt.Sprintf("duplicate endpoint id: %s", e.ID)}
		}
		seen[e.ID] = true
	}
	if err := ValidateSettings(&st.Settings); err != nil {
		return err
	}
	return ValidateTLS(st.TLS)
}
