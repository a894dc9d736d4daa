package commands

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/murphyatwork/velocypack"
)

// NewDumpCommand returns a cli.Command for "vpack dump".
func NewDumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Render a binary encoded file as JSON.",
		UsageText: `vpack dump [options] INFILE [OUTFILE]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-unsupported",
				Usage: "fail on values that have no JSON representation instead of skipping them",
			},
			&cli.BoolFlag{
				Name:  "dates",
				Usage: "render date values as ISO-8601 strings",
			},
		},
		Action: func(c *cli.Context) error {
			infile := c.Args().Get(0)
			if infile == "" {
				return errors.New(c.Command.UsageText)
			}

			var in []byte
			var err error
			if infile == "-" {
				in, err = io.ReadAll(os.Stdin)
			} else {
				in, err = os.ReadFile(infile)
			}
			if err != nil {
				return errors.Wrapf(err, "cannot read infile %q", infile)
			}

			opts := velocypack.DefaultOptions()
			if c.Bool("fail-unsupported") {
				opts.UnsupportedTypeBehavior = velocypack.FailOnUnsupportedTypes
			}
			opts.DumpUTCDates = c.Bool("dates")

			out, err := velocypack.NewDumper(opts).Dump(velocypack.Slice(in))
			if err != nil {
				return errors.Wrapf(err, "cannot dump infile %q", infile)
			}
			out = append(out, '\n')

			outfile := c.Args().Get(1)
			if outfile == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			return os.WriteFile(outfile, out, 0644)
		},
	}
}
