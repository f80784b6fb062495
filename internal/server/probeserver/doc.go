// Package probeserver implements the multi-port probe responder.
//
// A Supervisor starts one Listener per port binding. Each Listener owns a
// single listening socket and runs an accept loop; every accepted
// connection is served on its own goroutine, optionally after a TLS
// handshake, by a ConnHandler that reads one bounded request, writes one
// fixed response and closes the connection.
//
// Failures are contained at the level where they happen: a connection
// error never reaches its Listener, and a bind or accept failure marks
// only that Listener as failed.
package probeserver
