// Package metric provides Prometheus metrics for PortMesh.
//
// Metrics are registered on a private registry (not the global default)
// and exposed through Registry.Handler on the admin endpoint:
//
//   - portmesh_connections_accepted_total{port,tls}
//   - portmesh_connections_rejected_total{port}
//   - portmesh_tls_handshake_failures_total{port}
//   - portmesh_connection_errors_total{port,reason}
//   - portmesh_connections_active{port}
//   - portmesh_connection_duration_seconds{port}
//   - portmesh_listener_status{port,status}
//
// All recording methods are safe on a nil *Registry, which lets
// components run without metrics in tests.
package metric
