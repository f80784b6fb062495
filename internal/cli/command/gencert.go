package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/infra/tlsctx"
)

// GenCertCommand returns the gen-cert command.
func GenCertCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-cert",
		Usage: "Write a self-signed certificate and key for the TLS ports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: ".",
			},
			&cli.StringSliceFlag{
				Name:  "host",
				Usage: "DNS name or IP address to include (repeatable)",
				Value: cli.NewStringSlice("localhost", "127.0.0.1", "::1"),
			},
			&cli.DurationFlag{
				Name:  "valid-for",
				Usage: "Certificate lifetime",
				Value: 365 * 24 * time.Hour,
			},
		},
		Action: genCertAction,
	}
}

func genCertAction(c *cli.Context) error {
	certPath, keyPath, err := tlsctx.WriteSelfSigned(c.String("dir"), c.StringSlice("host"), c.Duration("valid-for"))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "certificate: %s\nkey:         %s\n", certPath, keyPath)
	return nil
}
