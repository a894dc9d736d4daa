package commands

import (
	"github.com/urfave/cli/v2"
)

// NewApp creates the vpack CLI app.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "vpack"
	app.Usage = "Convert between JSON and its binary document encoding"
	app.EnableBashCompletion = true

	app.Commands = []*cli.Command{
		NewConvertCommand(),
		NewDumpCommand(),
		NewVersionCommand(),
	}

	return app
}
