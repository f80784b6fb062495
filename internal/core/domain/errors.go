package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

// ConfigReason classifies a port specification error.
type ConfigReason string

const (
	ConfigOutOfRange   ConfigReason = "out_of_range"
	ConfigDuplicate    ConfigReason = "duplicate"
	ConfigInvalidRange ConfigReason = "invalid_range"
	ConfigEmpty        ConfigReason = "empty"
	ConfigTooLarge     ConfigReason = "too_large"
	ConfigSyntax       ConfigReason = "syntax"
)

var configCodes = map[ConfigReason]string{
	ConfigOutOfRange:   "PM-CONF-4001",
	ConfigDuplicate:    "PM-CONF-4002",
	ConfigInvalidRange: "PM-CONF-4003",
	ConfigEmpty:        "PM-CONF-4004",
	ConfigTooLarge:     "PM-CONF-4005",
	ConfigSyntax:       "PM-CONF-4006",
}

// ConfigError is returned by the port set resolver before any socket is opened.
type ConfigError struct {
	Reason ConfigReason
	Port   int    // offending port, 0 if not applicable
	Detail string // optional human-readable detail
}

// Code returns the structured error code.
func (e *ConfigError) Code() string {
	if c, ok := configCodes[e.Reason]; ok {
		return c
	}
	return "PM-CONF-4000"
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("[%s] port configuration %s", e.Code(), e.Reason)
	if e.Port != 0 {
		msg += fmt.Sprintf(" (port %d)", e.Port)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches another *ConfigError with the same reason.
// A target with an empty reason matches any ConfigError.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	// ErrPortOutOfRange matches ConfigErrors for ports outside 1-65535.
	ErrPortOutOfRange = &ConfigError{Reason: ConfigOutOfRange}

	// ErrPortDuplicate matches ConfigErrors for conflicting duplicate ports.
	ErrPortDuplicate = &ConfigError{Reason: ConfigDuplicate}

	// ErrInvalidRange matches ConfigErrors for ranges with low > high.
	ErrInvalidRange = &ConfigError{Reason: ConfigInvalidRange}

	// ErrNoPorts matches ConfigErrors for specifications that yield no port.
	ErrNoPorts = &ConfigError{Reason: ConfigEmpty}

	// ErrTooManyPorts matches ConfigErrors for ranges above the configured limit.
	ErrTooManyPorts = &ConfigError{Reason: ConfigTooLarge}

	// ErrPortSyntax matches ConfigErrors for unparsable port expressions.
	ErrPortSyntax = &ConfigError{Reason: ConfigSyntax}
)

// ============================================================================
// Certificate Errors (CERT)
// ============================================================================

// CertificateReason classifies a TLS context construction failure.
type CertificateReason string

const (
	CertNotFound   CertificateReason = "not_found"
	CertMalformed  CertificateReason = "malformed"
	CertUnreadable CertificateReason = "unreadable"
)

var certCodes = map[CertificateReason]string{
	CertNotFound:   "PM-CERT-4040",
	CertMalformed:  "PM-CERT-4000",
	CertUnreadable: "PM-CERT-4030",
}

// CertificateError is returned when the certificate/key pair cannot be loaded.
type CertificateError struct {
	Reason CertificateReason
	Path   string // file that caused the failure, empty if the pair itself is invalid
	Cause  error
}

// Code returns the structured error code.
func (e *CertificateError) Code() string {
	if c, ok := certCodes[e.Reason]; ok {
		return c
	}
	return "PM-CERT-5000"
}

// Error implements the error interface.
func (e *CertificateError) Error() string {
	msg := fmt.Sprintf("[%s] certificate %s", e.Code(), e.Reason)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CertificateError) Unwrap() error {
	return e.Cause
}

// Is matches another *CertificateError with the same reason.
func (e *CertificateError) Is(target error) bool {
	t, ok := target.(*CertificateError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	// ErrCertNotFound matches CertificateErrors for missing files.
	ErrCertNotFound = &CertificateError{Reason: CertNotFound}

	// ErrCertMalformed matches CertificateErrors for unparsable or mismatched pairs.
	ErrCertMalformed = &CertificateError{Reason: CertMalformed}
)

// ============================================================================
// Bind Errors (BIND)
// ============================================================================

// BindReason classifies a listener bind failure.
type BindReason string

const (
	BindAddressInUse     BindReason = "address_in_use"
	BindPermissionDenied BindReason = "permission_denied"
	BindOther            BindReason = "other"
)

// BindError is scoped to one listener and never aborts its siblings.
type BindError struct {
	Reason BindReason
	Port   int
	Cause  error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bind port %d: %s: %v", e.Port, e.Reason, e.Cause)
	}
	return fmt.Sprintf("bind port %d: %s", e.Port, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *BindError) Unwrap() error {
	return e.Cause
}

// Is matches another *BindError with the same reason.
func (e *BindError) Is(target error) bool {
	t, ok := target.(*BindError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// ============================================================================
// Connection-scoped Errors
// ============================================================================

// HandshakeError is scoped to one connection attempt on a TLS binding.
type HandshakeError struct {
	Port  int
	Peer  string
	Cause error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake on port %d from %s: %v", e.Port, e.Peer, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// ConnectionReason classifies a per-connection I/O failure.
type ConnectionReason string

const (
	ConnReadTimeout  ConnectionReason = "read_timeout"
	ConnWriteFailure ConnectionReason = "write_failure"
	ConnPeerReset    ConnectionReason = "peer_reset"
	ConnAborted      ConnectionReason = "aborted"
)

// ConnectionError is scoped to one connection and absorbed by its handler.
type ConnectionError struct {
	Reason ConnectionReason
	Port   int
	Peer   string
	Cause  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection %s on port %d: %s: %v", e.Peer, e.Port, e.Reason, e.Cause)
	}
	return fmt.Sprintf("connection %s on port %d: %s", e.Peer, e.Port, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is matches another *ConnectionError with the same reason.
func (e *ConnectionError) Is(target error) bool {
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// IsFatalAtStartup reports whether err must abort the whole run.
// Only configuration and certificate errors propagate that far.
func IsFatalAtStartup(err error) bool {
	var ce *ConfigError
	var cert *CertificateError
	return errors.As(err, &ce) || errors.As(err, &cert)
}
