// Package toolchain assembles and links programs with the system C compiler.
package toolchain

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Toolchain struct {
		// CC is the C compiler used as assembler and linker driver.
		CC string

		// RuntimeDir is where runtime.o is built.
		RuntimeDir string
	}

	CommandError struct {
		Cmd    string
		Output []byte
		Err    error
	}
)

//go:embed rt/runtime.c
var RuntimeSource []byte

const RuntimeObject = "runtime.o"

// New returns toolchain using $CC or gcc.
func New(runtimeDir string) *Toolchain {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "gcc"
	}

	return &Toolchain{
		CC:         cc,
		RuntimeDir: runtimeDir,
	}
}

// Available reports whether the C compiler can be found.
func (t *Toolchain) Available() bool {
	_, err := exec.LookPath(t.CC)
	return err == nil
}

func (t *Toolchain) Assemble(ctx context.Context, asm, obj string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "assemble", "asm", asm, "obj", obj)
	defer tr.Finish("err", &err)

	err = mkdirFor(obj)
	if err != nil {
		return err
	}

	return t.run(ctx, "-c", "-x", "assembler", asm, "-o", obj)
}

// Runtime builds runtime object once and returns its path.
func (t *Toolchain) Runtime(ctx context.Context) (obj string, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "runtime", "dir", t.RuntimeDir)
	defer tr.Finish("err", &err)

	obj = filepath.Join(t.RuntimeDir, RuntimeObject)

	if _, err := os.Stat(obj); err == nil {
		tr.Printw("runtime exists", "obj", obj)

		return obj, nil
	}

	err = os.MkdirAll(t.RuntimeDir, 0o755)
	if err != nil {
		return "", errors.Wrap(err, "mkdir")
	}

	src := filepath.Join(t.RuntimeDir, "runtime.c")

	err = os.WriteFile(src, RuntimeSource, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "write runtime source")
	}

	err = t.run(ctx, "-c", src, "-o", obj)
	if err != nil {
		return "", err
	}

	return obj, nil
}

func (t *Toolchain) Link(ctx context.Context, obj, exe string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "link", "obj", obj, "exe", exe)
	defer tr.Finish("err", &err)

	rt, err := t.Runtime(ctx)
	if err != nil {
		return errors.Wrap(err, "runtime")
	}

	err = mkdirFor(exe)
	if err != nil {
		return err
	}

	return t.run(ctx, obj, rt, "-o", exe)
}

func (t *Toolchain) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.CC, args...)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	tlog.SpanFromContext(ctx).V("toolchain").Printw("run", "cmd", cmd.String())

	err := cmd.Run()
	if err != nil {
		return CommandError{
			Cmd:    t.CC + " " + strings.Join(args, " "),
			Output: out.Bytes(),
			Err:    err,
		}
	}

	return nil
}

func mkdirFor(path string) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.Wrap(err, "mkdir %v", dir)
	}

	return nil
}

func (e CommandError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return fmt.Sprintf("%v: %v", e.Cmd, e.Err)
	}

	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}

	return fmt.Sprintf("%v: %v: %v", e.Cmd, e.Err, out)
}

func (e CommandError) Unwrap() error { return e.Err }
