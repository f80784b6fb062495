// Package connection is the CLI's client for the portmesh admin API.
package connection
