package flags

import (
	"fmt"

	"github.com/kaz/blastgen/config"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	loggerKey = "logger"
)

// Variant returns the flags selecting the configuration a command works on.
func Variant() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "variant",
			Value: config.DefaultVariant,
			Usage: "built-in variant name",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "YAML profile overriding a built-in variant",
		},
		&cli.IntFlag{
			Name:  "tables",
			Usage: "override the number of table sections",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "override the debug flag written into the document",
		},
	}
}

// ResolveVariant loads the variant selected by the Variant flags and applies the overrides.
func ResolveVariant(context *cli.Context) (*config.Variant, error) {
	var (
		v   *config.Variant
		err error
	)

	if context.IsSet("profile") {
		if context.IsSet("variant") {
			return nil, fmt.Errorf("--variant and --profile are mutually exclusive, set base in the profile instead")
		}
		v, err = config.Load(context.String("profile"))
		if err != nil {
			return nil, fmt.Errorf("config.Load failed: %w", err)
		}
	} else {
		v, err = config.Builtin(context.String("variant"))
		if err != nil {
			return nil, fmt.Errorf("config.Builtin failed: %w", err)
		}
	}

	if context.IsSet("tables") {
		v.Tables = context.Int("tables")
	}
	if context.IsSet("debug") {
		v.Debug = context.Bool("debug")
	}
	return v, nil
}

func SetLogger(context *cli.Context, log zerolog.Logger) {
	context.App.Metadata[loggerKey] = log
}

func Logger(context *cli.Context) zerolog.Logger {
	if log, ok := context.App.Metadata[loggerKey].(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}
