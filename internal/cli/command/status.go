package command

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/cli/connection"
	"github.com/yndnr/portmesh-go/internal/cli/output"
)

// ErrNotReady is returned by status --ready when no port is listening.
var ErrNotReady = errors.New("no listener is accepting connections")

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show listener states of a running server via its admin API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "admin",
				Aliases: []string{"a"},
				Usage:   "Admin server address",
				EnvVars: []string{"PORTMESH_ADMIN"},
				Value:   "127.0.0.1:9100",
			},
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Only check readiness; fails when no port is listening",
			},
			outputFlag(),
		},
		Action: statusAction,
	}
}

type listenerReport connection.ListenerReport

// Table implements output.Tabular.
func (r listenerReport) Table() *output.Table {
	t := output.NewTable("PORT", "PROTOCOL", "STATUS", "ADDRESS", "SINCE", "ERROR")
	for _, st := range r.Listeners {
		proto := "tcp"
		if st.Binding.TLS {
			proto = "tls"
		}
		since := ""
		if !st.Since.IsZero() {
			since = st.Since.Local().Format(time.DateTime)
		}
		t.AddRow(strconv.Itoa(st.Binding.Port), proto, st.Status.String(), st.Addr, since, st.Error)
	}
	return t
}

func statusAction(c *cli.Context) error {
	client := connection.NewHTTPClient(c.String("admin"))

	ctx, cancel := context.WithTimeout(c.Context, connection.DefaultTimeout)
	defer cancel()

	if c.Bool("ready") {
		ok, err := client.Ready(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotReady
		}
		printf(c.App.Writer, "ready\n")
		return nil
	}

	report, err := client.Listeners(ctx)
	if err != nil {
		return err
	}
	return render(c, listenerReport(*report))
}
