// Package config defines the PortMesh server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation run after loading
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// PORTMESH_ environment variables and command-line flags.
package config
