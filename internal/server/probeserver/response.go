package probeserver

import "fmt"

// Response bodies. They differ only by the path the connection took.
const (
	TLSBody   = "Hello from SSL Port!"
	PlainBody = "Hello from Non-SSL Port!"
)

var (
	tlsResponse   = buildResponse(TLSBody)
	plainResponse = buildResponse(PlainBody)
)

func buildResponse(body string) []byte {
	return []byte(fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body,
	))
}

// Response returns the fixed response for a TLS or plaintext binding.
// The returned slice must not be modified.
func Response(tls bool) []byte {
	if tls {
		return tlsResponse
	}
	return plainResponse
}
