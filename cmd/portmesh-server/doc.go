// Command portmesh-server listens on a configurable set of TCP ports,
// some of them TLS, and answers every connection with a fixed HTTP
// response. It is meant for firewall, load balancer and reachability
// probing.
//
// Usage:
//
//	portmesh-server --ports 9000-9010,9443/tls --cert cert.pem --key key.pem
//	portmesh-server resolve 8000-8002,8443/tls
//	portmesh-server gen-cert --dir ./certs
package main
