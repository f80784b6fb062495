// Package httpserver provides the admin HTTP surface of portmesh.
//
// It is built on net/http and exposes:
//
//   - GET /health: process liveness
//   - GET /ready: 200 once at least one listener is accepting
//   - GET /listeners: snapshot of every listener state
//   - GET /metrics: Prometheus exposition
//
// Every route runs behind Recover and RequestID. When an allow-list is
// configured, NetworkACL rejects peers outside it with 403.
package httpserver
