package tlsctx

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

// DefaultCipherSuites is the TLS 1.2 cipher allow-list: forward secret key
// exchange with AEAD ciphers only. TLS 1.3 suites are fixed by crypto/tls
// and are all AEAD.
var DefaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// MinVersion is the lowest protocol version offered.
const MinVersion = tls.VersionTLS12

// Build loads the certificate/key pair and returns the server TLS config.
//
// It fails with a *domain.CertificateError: NotFound if either file is
// absent, Malformed if the PEM cannot be parsed or the key does not match
// the certificate. No partial config is ever returned, and no file handle
// is retained.
func Build(certPath, keyPath string) (*tls.Config, error) {
	cert, err := LoadKeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return ServerConfig(cert), nil
}

// LoadKeyPair reads and validates a PEM certificate chain and private key.
func LoadKeyPair(certPath, keyPath string) (tls.Certificate, error) {
	certPEM, err := readPEM(certPath)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM, err := readPEM(keyPath)
	if err != nil {
		return tls.Certificate{}, err
	}

	if !hasBlock(certPEM, "CERTIFICATE") {
		return tls.Certificate{}, &domain.CertificateError{
			Reason: domain.CertMalformed,
			Path:   certPath,
			Cause:  errors.New("no CERTIFICATE block found"),
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &domain.CertificateError{
			Reason: domain.CertMalformed,
			Path:   certPath,
			Cause:  err,
		}
	}

	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return tls.Certificate{}, &domain.CertificateError{
				Reason: domain.CertMalformed,
				Path:   certPath,
				Cause:  fmt.Errorf("parse leaf: %w", err),
			}
		}
		cert.Leaf = leaf
	}

	return cert, nil
}

// ServerConfig returns a server TLS config serving cert.
// Callers must treat the result as immutable.
func ServerConfig(cert tls.Certificate) *tls.Config {
	suites := make([]uint16, len(DefaultCipherSuites))
	copy(suites, DefaultCipherSuites)

	return &tls.Config{
		Certificates:     []tls.Certificate{cert},
		MinVersion:       MinVersion,
		CipherSuites:     suites,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256, tls.CurveP384},
		ClientAuth:       tls.NoClientCert,
	}
}

// Info describes the serving certificate for startup logs and status output.
type Info struct {
	Subject   string    `json:"subject"`
	DNSNames  []string  `json:"dns_names,omitempty"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}

// Expired reports whether the certificate is outside its validity window at t.
func (i Info) Expired(t time.Time) bool {
	return t.Before(i.NotBefore) || t.After(i.NotAfter)
}

// Describe returns information about the leaf certificate of cfg.
func Describe(cfg *tls.Config) (Info, bool) {
	if cfg == nil || len(cfg.Certificates) == 0 || cfg.Certificates[0].Leaf == nil {
		return Info{}, false
	}
	leaf := cfg.Certificates[0].Leaf
	return Info{
		Subject:   leaf.Subject.String(),
		DNSNames:  leaf.DNSNames,
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
	}, true
}

func readPEM(path string) ([]byte, error) {
	if path == "" {
		return nil, &domain.CertificateError{
			Reason: domain.CertNotFound,
			Cause:  errors.New("path not configured"),
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, &domain.CertificateError{Reason: domain.CertNotFound, Path: path, Cause: err}
	default:
		return nil, &domain.CertificateError{Reason: domain.CertUnreadable, Path: path, Cause: err}
	}
}

func hasBlock(data []byte, blockType string) bool {
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return false
		}
		if block.Type == blockType {
			return true
		}
	}
	return false
}
