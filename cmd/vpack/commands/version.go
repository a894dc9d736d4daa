package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v2"
)

// NewVersionCommand returns a cli.Command for "vpack version".
func NewVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version of the vpack tool.",
		Action: func(c *cli.Context) error {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				fmt.Println("vpack (devel)")
				return nil
			}
			fmt.Printf("vpack %s\n", info.Main.Version)
			return nil
		},
	}
}
