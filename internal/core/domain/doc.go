// Package domain defines the core domain models for PortMesh.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - PortBinding: a (port, TLS requirement) pair the service listens on
//   - ListenerStatus / ListenerState: per-listener lifecycle snapshots
//   - Errors: the typed error taxonomy (config, certificate, bind,
//     handshake and connection errors)
//
// Errors carry a reason and a structured code, and compare by reason
// with errors.Is so callers can branch without string matching.
package domain
