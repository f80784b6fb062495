package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/server/app"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the merged configuration",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output format: yaml, json",
						Value:   "yaml",
					},
				},
				Action: configShow,
			},
			{
				Name:      "check",
				Usage:     "Validate a configuration file and its port set",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{configFlag()},
				Action:    configCheck,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	return render(c, cfg)
}

func configCheck(c *cli.Context) error {
	if path := c.Args().First(); path != "" {
		if err := c.Set("config", path); err != nil {
			return err
		}
	}

	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	bindings, err := app.ResolveBindings(&cfg.Listener)
	if err != nil {
		return err
	}

	tlsCount := 0
	for _, b := range bindings {
		if b.TLS {
			tlsCount++
		}
	}
	printf(c.App.Writer, "%s: ok, %d ports (%d tls)\n",
		joinNonEmpty(loader.FilePath(), "configuration"), len(bindings), tlsCount)
	return nil
}
