package command

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/cli/output"
	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/server/app"
)

// ResolveCommand returns the resolve command.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Print the bindings the configured ports expand to",
		ArgsUsage: "[PORT-EXPRESSION]",
		Flags: []cli.Flag{
			configFlag(),
			portsFlag(),
			&cli.IntFlag{Name: "max-ports", Usage: "Maximum number of ports, 0 for no limit"},
			outputFlag(),
		},
		Action: resolveAction,
	}
}

// BindingList is the resolve result.
type BindingList []domain.PortBinding

// Table implements output.Tabular.
func (l BindingList) Table() *output.Table {
	t := output.NewTable("PORT", "PROTOCOL")
	for _, b := range l {
		proto := "tcp"
		if b.TLS {
			proto = "tls"
		}
		t.AddRow(strconv.Itoa(b.Port), proto)
	}
	return t
}

func resolveAction(c *cli.Context) error {
	if expr := c.Args().First(); expr != "" {
		if err := c.Set("ports", expr); err != nil {
			return err
		}
	}

	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	bindings, err := app.ResolveBindings(&cfg.Listener)
	if err != nil {
		return err
	}
	return render(c, BindingList(bindings))
}
