// Package app assembles the cmmc command line application.
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/cmml/cmmc/cli/compile"
	"github.com/cmml/cmmc/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "cmmc\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a cmmc instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "cmmc"
	ctl.Version = config.Version
	ctl.Usage = "C−− compiler targeting the SPIM simulator"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, compile.NewCommands()...)
	return ctl
}
