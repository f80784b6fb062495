// Package portset resolves port specifications into listener bindings.
//
// A specification is a union of contiguous ranges and explicit ports,
// each carrying a TLS requirement:
//
//	spec, _ := portset.Parse("9000-9002,443/tls")
//	bindings, err := portset.Resolve(spec)
//
// Resolution is deterministic: bindings come back sorted by ascending
// port, identical duplicates collapse, and conflicting duplicates fail
// with a domain.ConfigError before any socket is opened.
package portset
