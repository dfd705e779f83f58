package generator

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/kaz/blastgen/config"
	"github.com/kaz/blastgen/render"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	bigSHA256 = "cc4813cd1569809d0fda2e198b36448099c938a2cf721685128053dff7a99db7"
	bigBytes  = 24551
)

type (
	failingFs struct {
		afero.Fs
		failWrite  bool
		failRename bool
	}

	failingFile struct {
		afero.File
	}
)

var (
	errInjected = errors.New("no space left on device")
)

func (fs *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil || !fs.failWrite {
		return f, err
	}
	return &failingFile{f}, nil
}

func (fs *failingFs) Rename(oldname, newname string) error {
	if fs.failRename {
		return errInjected
	}
	return fs.Fs.Rename(oldname, newname)
}

func (f *failingFile) Write(p []byte) (int, error) {
	return 0, errInjected
}

func variant(t *testing.T, name string) *config.Variant {
	v, err := config.Builtin(name)
	qt.New(t).Assert(err, qt.IsNil)
	return v
}

func expected(t *testing.T, v *config.Variant) []byte {
	buf := &bytes.Buffer{}
	qt.New(t).Assert(render.Render(buf, v, nil), qt.IsNil)
	return buf.Bytes()
}

func TestGenerate(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		t.Run(map[bool]string{false: "in-place", true: "atomic"}[atomic], func(t *testing.T) {
			c := qt.New(t)

			fs := afero.NewMemMapFs()
			g := New(fs, zerolog.Nop())

			v := variant(t, "big")
			res, err := g.Generate("/out/big.toml", v, Options{Atomic: atomic})
			c.Assert(err, qt.IsNil)
			c.Assert(res, qt.DeepEquals, &Result{
				Path:   "/out/big.toml",
				Bytes:  bigBytes,
				Tables: 20,
				SHA256: bigSHA256,
			})

			written, err := afero.ReadFile(fs, "/out/big.toml")
			c.Assert(err, qt.IsNil)
			c.Assert(bytes.Equal(written, expected(t, v)), qt.IsTrue)

			entries, err := afero.ReadDir(fs, "/out")
			c.Assert(err, qt.IsNil)
			c.Assert(entries, qt.HasLen, 1)
		})
	}
}

func TestGenerateOverwrites(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		c := qt.New(t)

		fs := afero.NewMemMapFs()
		c.Assert(afero.WriteFile(fs, "big.toml", bytes.Repeat([]byte("x"), 100000), 0644), qt.IsNil)

		v := variant(t, "small")
		_, err := New(fs, zerolog.Nop()).Generate("big.toml", v, Options{Atomic: atomic})
		c.Assert(err, qt.IsNil)

		written, err := afero.ReadFile(fs, "big.toml")
		c.Assert(err, qt.IsNil)
		c.Assert(bytes.Equal(written, expected(t, v)), qt.IsTrue, qt.Commentf("atomic=%v", atomic))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c := qt.New(t)

	fs := afero.NewMemMapFs()
	g := New(fs, zerolog.Nop())

	first, err := g.Generate("a.toml", variant(t, "big"), Options{})
	c.Assert(err, qt.IsNil)
	second, err := g.Generate("b.toml", variant(t, "big"), Options{Atomic: true})
	c.Assert(err, qt.IsNil)
	c.Assert(first.SHA256, qt.Equals, second.SHA256)

	a, err := afero.ReadFile(fs, "a.toml")
	c.Assert(err, qt.IsNil)
	b, err := afero.ReadFile(fs, "b.toml")
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.Equal(a, b), qt.IsTrue)
}

func TestGenerateThreeTables(t *testing.T) {
	c := qt.New(t)

	fs := afero.NewMemMapFs()
	v := variant(t, "big")
	v.Tables = 3

	tables := []string{}
	_, err := New(fs, zerolog.Nop()).Generate("three.toml", v, Options{
		Atomic: true,
		Hook:   func(table string) { tables = append(tables, table) },
	})
	c.Assert(err, qt.IsNil)
	c.Assert(tables, qt.DeepEquals, []string{"metrics1", "metrics2", "metrics3"})

	written, err := afero.ReadFile(fs, "three.toml")
	c.Assert(err, qt.IsNil)

	out := string(written)
	c.Assert(strings.Count(out, "[tables.metrics"), qt.Equals, 6)
	c.Assert(strings.Count(out, "    [\"col40\", \"Double\"]\n]\n"), qt.Equals, 3)
	c.Assert(strings.Count(out, "parallel_senders = 4\n"), qt.Equals, 3)
}

func TestGenerateStdout(t *testing.T) {
	c := qt.New(t)

	fs := afero.NewMemMapFs()
	stdout := &bytes.Buffer{}

	v := variant(t, "big")
	res, err := New(fs, zerolog.Nop()).WithStdout(stdout).Generate(Stdout, v, Options{Atomic: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.SHA256, qt.Equals, bigSHA256)
	c.Assert(bytes.Equal(stdout.Bytes(), expected(t, v)), qt.IsTrue)

	entries, err := afero.ReadDir(fs, "/")
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}

func TestGenerateInvalidVariant(t *testing.T) {
	c := qt.New(t)

	fs := afero.NewMemMapFs()
	v := variant(t, "big")
	v.Tables = 0

	_, err := New(fs, zerolog.Nop()).Generate("big.toml", v, Options{})
	c.Assert(err, qt.ErrorMatches, `variant.Validate failed: Tables: cannot be blank\.`)

	exists, err := afero.Exists(fs, "big.toml")
	c.Assert(err, qt.IsNil)
	c.Assert(exists, qt.IsFalse)
}

func TestGenerateUnwritable(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		c := qt.New(t)

		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		_, err := New(fs, zerolog.Nop()).Generate("big.toml", variant(t, "big"), Options{Atomic: atomic})

		var writeErr *OutputWriteError
		c.Assert(errors.As(err, &writeErr), qt.IsTrue, qt.Commentf("atomic=%v: %v", atomic, err))
		c.Assert(writeErr.Op, qt.Equals, "create")
		c.Assert(writeErr.Path, qt.Equals, "big.toml")
		c.Assert(errors.Is(err, syscall.EPERM), qt.IsTrue)
	}
}

func TestGenerateMissingDirectory(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "missing", "big.toml")
	_, err := New(afero.NewOsFs(), zerolog.Nop()).Generate(path, variant(t, "big"), Options{})

	var writeErr *OutputWriteError
	c.Assert(errors.As(err, &writeErr), qt.IsTrue)
	c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "writing .*big.toml failed: create: .*")
}

func TestGenerateOsFs(t *testing.T) {
	c := qt.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "big.toml")

	res, err := New(afero.NewOsFs(), zerolog.Nop()).Generate(path, variant(t, "big"), Options{Atomic: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.SHA256, qt.Equals, bigSHA256)

	info, err := os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Size(), qt.Equals, int64(bigBytes))
	c.Assert(info.Mode().Perm(), qt.Equals, os.FileMode(0644))

	entries, err := os.ReadDir(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
}

func TestGenerateWriteFailure(t *testing.T) {
	c := qt.New(t)

	mem := afero.NewMemMapFs()
	c.Assert(afero.WriteFile(mem, "big.toml", []byte("previous"), 0644), qt.IsNil)

	fs := &failingFs{Fs: mem, failWrite: true}
	_, err := New(fs, zerolog.Nop()).Generate("big.toml", variant(t, "big"), Options{Atomic: true})

	var writeErr *OutputWriteError
	c.Assert(errors.As(err, &writeErr), qt.IsTrue)
	c.Assert(writeErr.Op, qt.Equals, "write")
	c.Assert(errors.Is(err, errInjected), qt.IsTrue)

	previous, err := afero.ReadFile(mem, "big.toml")
	c.Assert(err, qt.IsNil)
	c.Assert(string(previous), qt.Equals, "previous")

	entries, err := afero.ReadDir(mem, "/")
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
}

func TestGenerateWriteFailureInPlace(t *testing.T) {
	c := qt.New(t)

	fs := &failingFs{Fs: afero.NewMemMapFs(), failWrite: true}
	_, err := New(fs, zerolog.Nop()).Generate("big.toml", variant(t, "small"), Options{})

	var writeErr *OutputWriteError
	c.Assert(errors.As(err, &writeErr), qt.IsTrue)
	c.Assert(writeErr.Op, qt.Equals, "write")
	c.Assert(writeErr.Unwrap(), qt.Not(qt.IsNil))
}

func TestGenerateRenameFailure(t *testing.T) {
	c := qt.New(t)

	mem := afero.NewMemMapFs()
	fs := &failingFs{Fs: mem, failRename: true}
	_, err := New(fs, zerolog.Nop()).Generate("big.toml", variant(t, "big"), Options{Atomic: true})

	var writeErr *OutputWriteError
	c.Assert(errors.As(err, &writeErr), qt.IsTrue)
	c.Assert(writeErr.Op, qt.Equals, "rename")

	entries, err := afero.ReadDir(mem, "/")
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}

func TestDigest(t *testing.T) {
	c := qt.New(t)

	res, err := Digest(variant(t, "big"))
	c.Assert(err, qt.IsNil)
	c.Assert(res.SHA256, qt.Equals, bigSHA256)
	c.Assert(res.Bytes, qt.Equals, int64(bigBytes))
	c.Assert(res.Tables, qt.Equals, 20)

	v := variant(t, "small")
	v.Send.ParallelSenders = 0
	_, err = Digest(v)
	c.Assert(err, qt.ErrorMatches, `variant.Validate failed: Send: \(ParallelSenders: cannot be blank\.\)\.`)
}
