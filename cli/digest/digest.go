package digest

import (
	"fmt"

	"github.com/kaz/blastgen/cli/flags"
	"github.com/kaz/blastgen/generator"
	"github.com/urfave/cli/v2"
)

func Flags() []cli.Flag {
	return flags.Variant()
}

// Action prints the checksum of the document a variant renders to, without writing it.
func Action(context *cli.Context) error {
	v, err := flags.ResolveVariant(context)
	if err != nil {
		return fmt.Errorf("ResolveVariant failed: %w", err)
	}

	res, err := generator.Digest(v)
	if err != nil {
		return fmt.Errorf("generator.Digest failed: %w", err)
	}

	_, err = fmt.Fprintf(context.App.Writer, "%s  %d bytes  %d tables  %d columns\n", res.SHA256, res.Bytes, res.Tables, v.Columns+1)
	return err
}
