package portset

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Spec
	}{
		{
			name: "range",
			expr: "9000-9002",
			want: Spec{Ranges: []Range{{Low: 9000, High: 9002}}},
		},
		{
			name: "tls range",
			expr: "8443-8445/tls",
			want: Spec{Ranges: []Range{{Low: 8443, High: 8445, TLS: true}}},
		},
		{
			name: "explicit list",
			expr: "80, 443/tls ,8080/tcp",
			want: Spec{Ports: []Entry{{Port: 80}, {Port: 443, TLS: true}, {Port: 8080}}},
		},
		{
			name: "mixed with empty elements",
			expr: "22,,9000-9001/SSL,",
			want: Spec{
				Ranges: []Range{{Low: 9000, High: 9001, TLS: true}},
				Ports:  []Entry{{Port: 22}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"abc", "80/udp", "9000-", "-9000", "1-x/tls"} {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr); !errors.Is(err, domain.ErrPortSyntax) {
				t.Errorf("Parse(%q) error = %v, want ErrPortSyntax", expr, err)
			}
		})
	}
}

func TestResolver_ParseAndResolve(t *testing.T) {
	bindings, err := NewResolver().ParseAndResolve("443/tls,80")
	if err != nil {
		t.Fatalf("ParseAndResolve() error = %v", err)
	}
	want := []domain.PortBinding{{Port: 80}, {Port: 443, TLS: true}}
	if !reflect.DeepEqual(bindings, want) {
		t.Errorf("ParseAndResolve() = %v, want %v", bindings, want)
	}

	if _, err := NewResolver().ParseAndResolve(""); !errors.Is(err, domain.ErrNoPorts) {
		t.Errorf("ParseAndResolve(\"\") error = %v, want ErrNoPorts", err)
	}
}
