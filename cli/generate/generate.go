package generate

import (
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/kaz/blastgen/cli/flags"
	"github.com/kaz/blastgen/generator"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var (
	Fs = afero.NewOsFs()
)

func Flags() []cli.Flag {
	return append(flags.Variant(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   "big.toml",
			Usage:   "file to write, - for stdout",
		},
		&cli.BoolFlag{
			Name:  "atomic",
			Value: true,
			Usage: "write to a temporary file and rename it over the output",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show a progress bar on stderr",
		},
	)
}

func Action(context *cli.Context) error {
	v, err := flags.ResolveVariant(context)
	if err != nil {
		return fmt.Errorf("ResolveVariant failed: %w", err)
	}

	opts := generator.Options{Atomic: context.Bool("atomic")}

	if context.Bool("progress") {
		bar := pb.Full.New(v.Tables).SetWriter(context.App.ErrWriter).Start()
		defer bar.Finish()

		opts.Hook = func(string) { bar.Increment() }
	}

	g := generator.New(Fs, flags.Logger(context)).WithStdout(context.App.Writer)
	if _, err := g.Generate(context.String("output"), v, opts); err != nil {
		return fmt.Errorf("generator.Generate failed: %w", err)
	}
	return nil
}
