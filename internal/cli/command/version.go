package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/portmesh-go/internal/cli/output"
	"github.com/yndnr/portmesh-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Print build information",
		Flags:  []cli.Flag{outputFlag()},
		Action: versionAction,
	}
}

type versionInfo buildinfo.Info

func (v versionInfo) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("version", v.Version)
	t.AddRow("commit", v.Commit)
	t.AddRow("build_time", v.BuildTime)
	t.AddRow("go_version", v.GoVersion)
	t.AddRow("platform", v.Platform)
	return t
}

func versionAction(c *cli.Context) error {
	return render(c, versionInfo(buildinfo.Get()))
}
