package portset

import (
	"fmt"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

// DefaultMaxPorts is the default limit on the number of resolved bindings.
// Listening on every port of the host is almost always a misconfiguration.
const DefaultMaxPorts = 1024

// Range is a contiguous, inclusive port range.
type Range struct {
	Low  int  `koanf:"low" json:"low" yaml:"low"`
	High int  `koanf:"high" json:"high" yaml:"high"`
	TLS  bool `koanf:"tls" json:"tls" yaml:"tls"`
}

// Size returns the number of ports in the range (0 if inverted).
func (r Range) Size() int {
	if r.High < r.Low {
		return 0
	}
	return r.High - r.Low + 1
}

// Entry is a single explicitly configured port.
type Entry struct {
	Port int  `koanf:"port" json:"port" yaml:"port"`
	TLS  bool `koanf:"tls" json:"tls" yaml:"tls"`
}

// Spec is a port specification: ranges and explicit entries.
type Spec struct {
	Ranges []Range `koanf:"ranges" json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Ports  []Entry `koanf:"ports" json:"ports,omitempty" yaml:"ports,omitempty"`
}

// IsEmpty reports whether the spec names no port at all.
func (s Spec) IsEmpty() bool {
	return len(s.Ranges) == 0 && len(s.Ports) == 0
}

// Resolver expands a Spec into ordered bindings.
type Resolver struct {
	maxPorts int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxPorts sets the maximum number of bindings. Zero disables the limit.
func WithMaxPorts(n int) Option {
	return func(r *Resolver) {
		r.maxPorts = n
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{maxPorts: DefaultMaxPorts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves spec with the default resolver.
func Resolve(spec Spec) ([]domain.PortBinding, error) {
	return NewResolver().Resolve(spec)
}

// Resolve validates spec and returns its bindings in ascending port order.
func (r *Resolver) Resolve(spec Spec) ([]domain.PortBinding, error) {
	if spec.IsEmpty() {
		return nil, &domain.ConfigError{Reason: domain.ConfigEmpty, Detail: "no port range or port list given"}
	}

	total := len(spec.Ports)
	for _, rg := range spec.Ranges {
		if err := validateRange(rg); err != nil {
			return nil, err
		}
		total += rg.Size()
	}

	// Identical duplicates collapse, so the limit applies to unique ports.
	// Expansion stops as soon as the limit is crossed.
	capacity := min(total, domain.MaxPort-domain.MinPort+1)
	if r.maxPorts > 0 {
		capacity = min(capacity, r.maxPorts+1)
	}
	seen := make(map[int]bool, capacity)
	bindings := make([]domain.PortBinding, 0, capacity)

	add := func(b domain.PortBinding) error {
		if err := b.Validate(); err != nil {
			return err
		}
		if tls, ok := seen[b.Port]; ok {
			if tls != b.TLS {
				return &domain.ConfigError{
					Reason: domain.ConfigDuplicate,
					Port:   b.Port,
					Detail: "port listed with conflicting TLS requirement",
				}
			}
			return nil
		}
		seen[b.Port] = b.TLS
		bindings = append(bindings, b)
		if r.maxPorts > 0 && len(bindings) > r.maxPorts {
			return &domain.ConfigError{
				Reason: domain.ConfigTooLarge,
				Detail: fmt.Sprintf("more than %d unique ports requested", r.maxPorts),
			}
		}
		return nil
	}

	for _, rg := range spec.Ranges {
		for p := rg.Low; p <= rg.High; p++ {
			if err := add(domain.PortBinding{Port: p, TLS: rg.TLS}); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range spec.Ports {
		if err := add(domain.PortBinding{Port: e.Port, TLS: e.TLS}); err != nil {
			return nil, err
		}
	}

	domain.SortBindings(bindings)
	return bindings, nil
}

func validateRange(rg Range) error {
	for _, p := range []int{rg.Low, rg.High} {
		if p < domain.MinPort || p > domain.MaxPort {
			return &domain.ConfigError{
				Reason: domain.ConfigOutOfRange,
				Port:   p,
				Detail: fmt.Sprintf("range %d-%d exceeds %d-%d", rg.Low, rg.High, domain.MinPort, domain.MaxPort),
			}
		}
	}
	if rg.Low > rg.High {
		return &domain.ConfigError{
			Reason: domain.ConfigInvalidRange,
			Detail: fmt.Sprintf("range %d-%d has low > high", rg.Low, rg.High),
		}
	}
	return nil
}
