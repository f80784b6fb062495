package portset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

// Parse parses a comma separated port expression.
//
// Each element is either a single port or an inclusive range, optionally
// suffixed with "/tls" or "/tcp" (the default):
//
//	9000-9002          three plaintext ports
//	8443-8445/tls      three TLS ports
//	80,443/tls,8080    explicit list
//
// Parse only checks syntax; bounds and duplicates are checked by Resolve.
func Parse(expr string) (Spec, error) {
	var spec Spec

	for _, raw := range strings.Split(expr, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}

		tls := false
		if i := strings.LastIndexByte(item, '/'); i >= 0 {
			switch strings.ToLower(strings.TrimSpace(item[i+1:])) {
			case "tls", "ssl":
				tls = true
			case "tcp", "plain":
			default:
				return Spec{}, syntaxError(item, "unknown protocol suffix")
			}
			item = strings.TrimSpace(item[:i])
		}

		if lo, hi, ok := strings.Cut(item, "-"); ok {
			low, err := parsePort(lo)
			if err != nil {
				return Spec{}, syntaxError(raw, err.Error())
			}
			high, err := parsePort(hi)
			if err != nil {
				return Spec{}, syntaxError(raw, err.Error())
			}
			spec.Ranges = append(spec.Ranges, Range{Low: low, High: high, TLS: tls})
			continue
		}

		port, err := parsePort(item)
		if err != nil {
			return Spec{}, syntaxError(raw, err.Error())
		}
		spec.Ports = append(spec.Ports, Entry{Port: port, TLS: tls})
	}

	return spec, nil
}

// ParseAndResolve parses expr and resolves it with r.
func (r *Resolver) ParseAndResolve(expr string) ([]domain.PortBinding, error) {
	spec, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return r.Resolve(spec)
}

func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing port number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port number %q", s)
	}
	return n, nil
}

func syntaxError(item, detail string) error {
	return &domain.ConfigError{
		Reason: domain.ConfigSyntax,
		Detail: fmt.Sprintf("%q: %s", strings.TrimSpace(item), detail),
	}
}
