package generator

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/kaz/blastgen/config"
	"github.com/kaz/blastgen/render"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type (
	Generator struct {
		fs     afero.Fs
		log    zerolog.Logger
		stdout io.Writer
	}

	Options struct {
		// Atomic writes to a temporary file next to the target and renames it into place.
		Atomic bool
		Hook   render.Hook
	}

	Result struct {
		Path   string
		Bytes  int64
		Tables int
		SHA256 string
	}

	// OutputWriteError is returned for any failure to create, write or commit the output file.
	OutputWriteError struct {
		Op   string
		Path string
		Err  error
	}

	countingWriter struct {
		w io.Writer
		n int64
	}
)

const (
	Stdout = "-"

	filePerm = 0644
)

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("writing %s failed: %s: %v", e.Path, e.Op, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func New(fs afero.Fs, log zerolog.Logger) *Generator {
	return &Generator{fs: fs, log: log, stdout: os.Stdout}
}

func (g *Generator) WithStdout(w io.Writer) *Generator {
	g.stdout = w
	return g
}

// Generate renders v into path, replacing whatever was there.
func (g *Generator) Generate(path string, v *config.Variant, opts Options) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("variant.Validate failed: %w", err)
	}

	log := g.log.With().Str("path", path).Logger()
	hook := func(table string) {
		log.Debug().Str("table", table).Msg("table section written")
		if opts.Hook != nil {
			opts.Hook(table)
		}
	}

	var (
		res *Result
		err error
	)
	switch {
	case path == Stdout:
		res, err = emit(g.stdout, v, hook)
	case opts.Atomic:
		res, err = g.writeAtomic(path, v, hook)
	default:
		res, err = g.writeInPlace(path, v, hook)
	}
	if err != nil {
		return nil, err
	}

	res.Path = path
	log.Info().Int64("bytes", res.Bytes).Int("tables", res.Tables).Str("sha256", res.SHA256).Msg("configuration generated")
	return res, nil
}

// Digest renders v without writing it anywhere.
func Digest(v *config.Variant) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("variant.Validate failed: %w", err)
	}
	return emit(io.Discard, v, nil)
}

func emit(w io.Writer, v *config.Variant, hook render.Hook) (*Result, error) {
	sum := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(w, sum)}

	if err := render.Render(cw, v, hook); err != nil {
		return nil, &OutputWriteError{Op: "write", Path: Stdout, Err: err}
	}
	return result(cw, sum, v), nil
}

func (g *Generator) writeInPlace(path string, v *config.Variant, hook render.Hook) (*Result, error) {
	file, err := g.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, &OutputWriteError{Op: "create", Path: path, Err: err}
	}
	defer file.Close()

	res, err := g.writeFile(file, path, v, hook)
	if err != nil {
		return nil, err
	}

	if err := file.Close(); err != nil {
		return nil, &OutputWriteError{Op: "close", Path: path, Err: err}
	}
	return res, nil
}

// writeAtomic leaves path untouched unless the whole document made it to disk.
func (g *Generator) writeAtomic(path string, v *config.Variant, hook render.Hook) (*Result, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(g.fs, dir, "."+base+".*.tmp")
	if err != nil {
		return nil, &OutputWriteError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		tmp.Close()
		if err := g.fs.Remove(tmpName); err != nil {
			g.log.Warn().Err(err).Str("path", tmpName).Msg("removing temporary file failed")
		}
	}()

	res, err := g.writeFile(tmp, path, v, hook)
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, &OutputWriteError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &OutputWriteError{Op: "close", Path: path, Err: err}
	}
	if err := g.fs.Chmod(tmpName, filePerm); err != nil {
		return nil, &OutputWriteError{Op: "chmod", Path: path, Err: err}
	}
	if err := g.fs.Rename(tmpName, path); err != nil {
		return nil, &OutputWriteError{Op: "rename", Path: path, Err: err}
	}

	committed = true
	return res, nil
}

func (g *Generator) writeFile(file io.Writer, path string, v *config.Variant, hook render.Hook) (*Result, error) {
	buf := bufio.NewWriter(file)
	sum := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(buf, sum)}

	if err := render.Render(cw, v, hook); err != nil {
		return nil, &OutputWriteError{Op: "write", Path: path, Err: err}
	}
	if err := buf.Flush(); err != nil {
		return nil, &OutputWriteError{Op: "flush", Path: path, Err: err}
	}
	return result(cw, sum, v), nil
}

func result(cw *countingWriter, sum hash.Hash, v *config.Variant) *Result {
	return &Result{
		Bytes:  cw.n,
		Tables: v.Tables,
		SHA256: hex.EncodeToString(sum.Sum(nil)),
	}
}
