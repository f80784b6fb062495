// Package tlsctx builds the server-side TLS context for PortMesh.
//
// The context is built exactly once at startup from a certificate chain
// and private key on disk, then shared read-only by every TLS listener:
//
//	cfg, err := tlsctx.Build("server.crt", "server.key")
//	if errors.Is(err, domain.ErrCertNotFound) { ... }
//
// The returned configuration disables everything below TLS 1.2 and
// restricts TLS 1.2 cipher suites to ECDHE with AEAD ciphers. Client
// certificates are never requested.
package tlsctx
