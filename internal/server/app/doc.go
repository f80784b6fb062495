// Package app assembles a portmesh server from its configuration.
//
// Startup order:
//
//  1. resolve the port set (configuration errors abort here)
//  2. build the TLS context if any binding needs it, honoring
//     tls.failure_scope
//  3. open the optional GeoIP database
//  4. start every listener behind the supervisor
//  5. start the admin HTTP server and the config file watcher
//
// Shutdown runs the same steps in reverse through a shutdown.Handler.
package app
