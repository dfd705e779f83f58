package variants

import (
	"fmt"
	"text/tabwriter"

	"github.com/kaz/blastgen/config"
	"github.com/urfave/cli/v2"
)

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "show",
			Usage: "print the named variant as a YAML profile",
		},
	}
}

func Action(context *cli.Context) error {
	out := context.App.Writer

	if name := context.String("show"); name != "" {
		v, err := config.Builtin(name)
		if err != nil {
			return fmt.Errorf("config.Builtin failed: %w", err)
		}

		raw, err := config.Marshal(name, v)
		if err != nil {
			return fmt.Errorf("config.Marshal failed: %w", err)
		}
		if _, err := out.Write(raw); err != nil {
			return fmt.Errorf("out.Write failed: %w", err)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTABLES\tCOLUMNS\tENDPOINTS")
	for _, name := range config.Names() {
		v, err := config.Builtin(name)
		if err != nil {
			return fmt.Errorf("config.Builtin failed: %w", err)
		}

		endpoints := "ilp"
		if v.Database.PgSQL != "" {
			endpoints += ",pgsql"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, v.Tables, v.Columns, endpoints)
	}
	return w.Flush()
}
