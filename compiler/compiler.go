package compiler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/back"
	"github.com/slowlang/ecc/compiler/check"
	"github.com/slowlang/ecc/compiler/explicate"
	"github.com/slowlang/ecc/compiler/format"
	"github.com/slowlang/ecc/compiler/front"
	"github.com/slowlang/ecc/compiler/mon"
	"github.com/slowlang/ecc/compiler/toolchain"
)

type (
	Compiler struct {
		// Target is "darwin" or "linux".
		Target string

		// Debug receives every pass result if set.
		Debug io.Writer

		Toolchain *toolchain.Toolchain
	}

	// Paths are the files Build produces.
	Paths struct {
		Asm    string
		Object string
		Exe    string

		// RuntimeDir holds the compiled runtime object.
		RuntimeDir string
	}
)

const TargetDir = "target"

func New() *Compiler {
	return &Compiler{
		Target:    runtime.GOOS,
		Toolchain: toolchain.New(filepath.Join(TargetDir, "object")),
	}
}

// DefaultPaths returns output files for a source file under TargetDir.
func DefaultPaths(name string) Paths {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	return Paths{
		Asm:        filepath.Join(TargetDir, "asm", base+".s"),
		Object:     filepath.Join(TargetDir, "object", base+".o"),
		Exe:        filepath.Join(TargetDir, "exe", base),
		RuntimeDir: filepath.Join(TargetDir, "object"),
	}
}

func (c *Compiler) ParseFile(ctx context.Context, name string) (p *mon.Program, err error) {
	p, err = front.New().ParseFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	c.dump(ctx, "Parse", p)

	return p, nil
}

// CheckFile parses and type checks the file.
func (c *Compiler) CheckFile(ctx context.Context, name string) (p *mon.Program, env check.Env, err error) {
	p, err = c.ParseFile(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	env, err = check.Check(ctx, p)
	if err != nil {
		return nil, nil, errors.Wrap(err, "check")
	}

	return p, env, nil
}

func (c *Compiler) CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return c.Compile(ctx, name, text)
}

// Compile returns assembly text of the program.
func (c *Compiler) Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "target", c.Target)
	defer tr.Finish("err", &err)

	p, err := front.New().ParseFileData(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	c.dump(ctx, "Parse", p)

	_, err = check.Check(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "check")
	}

	ip, err := explicate.Explicate(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "explicate control")
	}

	c.dump(ctx, "Explicate Control", ip)

	bc := back.New()
	bc.Target = c.target()
	bc.Dump = func(pass string, x any) { c.dump(ctx, pass, x) }

	obj, err = bc.Compile(ctx, obj, ip)
	if err != nil {
		return nil, errors.Wrap(err, "back")
	}

	return obj, nil
}

// Build compiles the file into an executable.
// Zero fields of paths are taken from DefaultPaths.
func (c *Compiler) Build(ctx context.Context, name string, paths Paths) (_ Paths, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "name", name)
	defer tr.Finish("err", &err)

	paths = paths.withDefaults(name)

	asm, err := c.CompileFile(ctx, name)
	if err != nil {
		return paths, err
	}

	err = os.MkdirAll(filepath.Dir(paths.Asm), 0o755)
	if err != nil {
		return paths, errors.Wrap(err, "mkdir")
	}

	err = os.WriteFile(paths.Asm, asm, 0o644)
	if err != nil {
		return paths, errors.Wrap(err, "write asm")
	}

	tc := c.Toolchain
	if tc == nil {
		tc = toolchain.New(paths.RuntimeDir)
	} else {
		cp := *tc
		cp.RuntimeDir = paths.RuntimeDir
		tc = &cp
	}

	err = tc.Assemble(ctx, paths.Asm, paths.Object)
	if err != nil {
		return paths, errors.Wrap(err, "assemble")
	}

	err = tc.Link(ctx, paths.Object, paths.Exe)
	if err != nil {
		return paths, errors.Wrap(err, "link")
	}

	tr.Printw("built", "exe", paths.Exe)

	return paths, nil
}

func (p Paths) withDefaults(name string) Paths {
	d := DefaultPaths(name)

	if p.Asm == "" {
		p.Asm = d.Asm
	}

	if p.Object == "" {
		p.Object = d.Object
	}

	if p.Exe == "" {
		p.Exe = d.Exe
	}

	if p.RuntimeDir == "" {
		p.RuntimeDir = d.RuntimeDir
	}

	return p
}

func (c *Compiler) target() string {
	if c.Target != "" {
		return c.Target
	}

	return runtime.GOOS
}

func (c *Compiler) dump(ctx context.Context, pass string, x any) {
	if c.Debug == nil {
		return
	}

	b := hfmt.Appendf(nil, "=== %v ===\n", pass)

	b, err := format.Format(ctx, b, x)
	if err != nil {
		tlog.SpanFromContext(ctx).Printw("dump", "pass", pass, "err", err)
		return
	}

	_, _ = c.Debug.Write(b)
}
