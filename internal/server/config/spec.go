package config

import (
	"time"

	"github.com/yndnr/portmesh-go/internal/core/portset"
)

// ServerConfig is the root configuration for portmesh-server.
type ServerConfig struct {
	Listener ListenerSection `koanf:"listener" json:"listener" yaml:"listener"`
	TLS      TLSSection      `koanf:"tls" json:"tls" yaml:"tls"`
	Admin    AdminSection    `koanf:"admin" json:"admin" yaml:"admin"`
	GeoIP    GeoIPSection    `koanf:"geoip" json:"geoip" yaml:"geoip"`
	Log      LogSection      `koanf:"log" json:"log" yaml:"log"`
}

// ListenerSection configures the port set and per-listener behavior.
type ListenerSection struct {
	// Ports is the textual port expression, e.g. "9000-9002,9443/tls".
	Ports string `koanf:"ports" json:"ports,omitempty" yaml:"ports,omitempty"`

	// Ranges and List are the structured equivalents of Ports. All three
	// are merged before resolution.
	Ranges []portset.Range `koanf:"ranges" json:"ranges,omitempty" yaml:"ranges,omitempty"`
	List   []portset.Entry `koanf:"list" json:"list,omitempty" yaml:"list,omitempty"`

	// Host is the bind address. Empty binds the wildcard address.
	Host string `koanf:"host" json:"host,omitempty" yaml:"host,omitempty"`

	// Backlog is the listen(2) pending connection queue length.
	Backlog int `koanf:"backlog" json:"backlog" yaml:"backlog"`

	HandshakeTimeout time.Duration `koanf:"handshake_timeout" json:"handshake_timeout" yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`

	// ReadLimit is the maximum number of request bytes read per connection.
	ReadLimit int `koanf:"read_limit" json:"read_limit" yaml:"read_limit"`

	// AcceptRate limits accepted connections per second per peer IP.
	// Zero disables admission control.
	AcceptRate  float64 `koanf:"accept_rate" json:"accept_rate" yaml:"accept_rate"`
	AcceptBurst int     `koanf:"accept_burst" json:"accept_burst" yaml:"accept_burst"`

	// MaxPorts caps the number of resolved bindings. Zero disables the cap.
	MaxPorts int `koanf:"max_ports" json:"max_ports" yaml:"max_ports"`

	// MaxAcceptRetries is the number of consecutive accept errors after
	// which a listener gives up.
	MaxAcceptRetries int `koanf:"max_accept_retries" json:"max_accept_retries" yaml:"max_accept_retries"`

	// GracePeriod bounds how long shutdown waits for in-flight connections.
	GracePeriod time.Duration `koanf:"grace_period" json:"grace_period" yaml:"grace_period"`
}

// PortSpec merges Ports, Ranges and List into one resolver input.
func (s ListenerSection) PortSpec() (portset.Spec, error) {
	var spec portset.Spec
	if s.Ports != "" {
		parsed, err := portset.Parse(s.Ports)
		if err != nil {
			return portset.Spec{}, err
		}
		spec = parsed
	}
	spec.Ranges = append(spec.Ranges, s.Ranges...)
	spec.Ports = append(spec.Ports, s.List...)
	return spec, nil
}

// Certificate failure scopes.
const (
	// FailureScopeProcess aborts startup on any certificate error when at
	// least one TLS binding is configured.
	FailureScopeProcess = "process"

	// FailureScopeBindings drops TLS bindings on a certificate error and
	// keeps serving the plaintext ones.
	FailureScopeBindings = "bindings"
)

// TLSSection configures TLS termination.
type TLSSection struct {
	CertFile     string `koanf:"cert_file" json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile      string `koanf:"key_file" json:"key_file,omitempty" yaml:"key_file,omitempty"`
	FailureScope string `koanf:"failure_scope" json:"failure_scope" yaml:"failure_scope"`
}

// AdminSection configures the admin HTTP endpoint.
type AdminSection struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr,omitempty"`

	// AllowList restricts access to these IPs or CIDRs. Empty allows all.
	AllowList []string `koanf:"allow_list" json:"allow_list,omitempty" yaml:"allow_list,omitempty"`
}

// GeoIPSection configures peer geolocation in accept logs.
type GeoIPSection struct {
	// Database is the path to a MaxMind country or city database.
	// Empty disables lookups.
	Database string `koanf:"database" json:"database,omitempty" yaml:"database,omitempty"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
