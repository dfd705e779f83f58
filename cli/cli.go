package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kaz/blastgen/cli/digest"
	"github.com/kaz/blastgen/cli/flags"
	"github.com/kaz/blastgen/cli/generate"
	"github.com/kaz/blastgen/cli/variants"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var (
	Version = "dev"
)

func New(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()

	app.Name = "blastgen"
	app.Usage = "configuration generator for the QuestDB blaster"
	app.Version = Version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Metadata = map[string]interface{}{}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "log-level",
			Value: zerolog.LevelInfoValue,
		},
	}
	app.Before = func(context *cli.Context) error {
		level, err := zerolog.ParseLevel(context.String("log-level"))
		if err != nil {
			return fmt.Errorf("zerolog.ParseLevel failed: %w", err)
		}

		log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
			Level(level).
			With().Timestamp().Logger()
		flags.SetLogger(context, log)
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:   "generate",
			Usage:  "write the configuration file",
			Action: generate.Action,
			Flags:  generate.Flags(),
		},
		{
			Name:   "variants",
			Usage:  "list the built-in variants",
			Action: variants.Action,
			Flags:  variants.Flags(),
		},
		{
			Name:   "digest",
			Usage:  "print the checksum of the configuration without writing it",
			Action: digest.Action,
			Flags:  digest.Flags(),
		},
	}

	return app
}

func Start() error {
	return New(os.Stdout, os.Stderr).Run(os.Args)
}
