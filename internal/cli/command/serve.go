package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/portmesh-go/internal/server/app"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the listeners and serve until interrupted",
		Flags:  serveFlags(),
		Action: serveAction,
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		portsFlag(),
		&cli.StringFlag{Name: "host", Usage: "Bind address (default: all interfaces)"},
		&cli.IntFlag{Name: "backlog", Usage: "Listen backlog per port"},
		&cli.IntFlag{Name: "max-ports", Usage: "Maximum number of ports, 0 for no limit"},
		&cli.StringFlag{Name: "cert", Usage: "TLS certificate file (PEM)"},
		&cli.StringFlag{Name: "key", Usage: "TLS private key file (PEM)"},
		&cli.StringFlag{Name: "failure-scope", Usage: "Certificate error handling: process or bindings"},
		&cli.StringFlag{Name: "admin-addr", Usage: "Admin HTTP address, empty to disable"},
		&cli.StringFlag{Name: "geoip-db", Usage: "GeoLite2/GeoIP2 country database"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error"},
		&cli.StringFlag{Name: "log-format", Usage: "Log format: json, text"},
	}
}

func serveAction(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting portmesh-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath(),
	)

	a, err := app.New(cfg, app.WithLogger(log), app.WithConfigLoader(loader))
	if err != nil {
		return err
	}
	if err := a.Run(c.Context); err != nil {
		return err
	}

	log.Info("portmesh-server stopped")
	return nil
}
