package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/murphyatwork/velocypack"
)

// NewConvertCommand returns a cli.Command for "vpack convert".
func NewConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a JSON file to its binary encoding.",
		UsageText: `vpack convert [options] INFILE [OUTFILE]`,
		Description: `The convert command reads the JSON INFILE and writes its binary
encoding to OUTFILE. "-" as INFILE reads from the standard input;
a missing OUTFILE writes to the standard output.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-sort",
				Usage: "keep object keys in source order instead of sorting them",
			},
			&cli.BoolFlag{
				Name:  "check-unique",
				Usage: "fail on duplicate object keys",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "request compact arrays and objects",
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
			opts.SortAttributeNames = !c.Bool("no-sort")
			opts.CheckAttributeUniqueness = c.Bool("check-unique")
			opts.BuildUnindexedArrays = c.Bool("compact")
			opts.BuildUnindexedObjects = c.Bool("compact")

			s, err := velocypack.FromJSON(in, opts)
			if err != nil {
				return errors.Wrapf(err, "cannot parse infile %q", infile)
			}

			outfile := c.Args().Get(1)
			if outfile == "" {
				_, err = os.Stdout.Write(s)
				return err
			}
			if err := os.WriteFile(outfile, s, 0644); err != nil {
				return errors.Wrapf(err, "cannot write outfile %q", outfile)
			}

			fmt.Fprintf(os.Stderr, "JSON infile size:    %d\n", len(in))
			fmt.Fprintf(os.Stderr, "Binary outfile size: %d\n", len(s))
			return nil
		},
	}
}
