package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/cli/output"
	"github.com/yndnr/portmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/portmesh-go/internal/infra/confloader"
	"github.com/yndnr/portmesh-go/internal/server/app"
	"github.com/yndnr/portmesh-go/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "portmesh-server",
		Usage:                "Multi-port TCP/TLS probe listener",
		Version:              buildinfo.String(),
		HideVersion:          true,
		EnableBashCompletion: true,
		Flags:                serveFlags(),
		Action:               serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			ResolveCommand(),
			ConfigCommand(),
			GenCertCommand(),
			StatusCommand(),
			VersionCommand(),
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file (YAML)",
		EnvVars: []string{"PORTMESH_CONFIG"},
	}
}

func portsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "ports",
		Aliases: []string{"p"},
		Usage:   "Port expression, e.g. 9000-9010,9443/tls",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: table, json, yaml",
		Value:   "table",
	}
}

// flagOverrides maps command line flags onto config keys. Only flags the
// user actually set override the file and environment.
var flagOverrides = map[string]string{
	"ports":         "listener.ports",
	"host":          "listener.host",
	"backlog":       "listener.backlog",
	"max-ports":     "listener.max_ports",
	"cert":          "tls.cert_file",
	"key":           "tls.key_file",
	"failure-scope": "tls.failure_scope",
	"admin-addr":    "admin.addr",
	"geoip-db":      "geoip.database",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// newLoader builds a config loader from the command's flags.
func newLoader(c *cli.Context) *confloader.Loader {
	overrides := make(map[string]any)
	for name, key := range flagOverrides {
		if c.IsSet(name) {
			overrides[key] = c.Value(name)
		}
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	return confloader.NewLoader(opts...)
}

func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	loader := newLoader(c)
	cfg, err := app.LoadConfig(loader)
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
