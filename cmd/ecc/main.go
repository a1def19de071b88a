package main

import (
	"context"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler"
	"github.com/slowlang/ecc/compiler/format"
)

func main() {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source files into executables",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("out,o", "", "executable path"),
			cli.NewFlag("object-out", "", "object file path"),
			cli.NewFlag("asm-out", "", "assembly file path"),
			cli.NewFlag("target", "", "target os: linux or darwin (default is host)"),
			cli.NewFlag("debug,d", false, "print program after every pass to stderr"),
		},
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print assembly to stdout",
		Action:      asmAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("target", "", "target os: linux or darwin (default is host)"),
			cli.NewFlag("debug,d", false, "print program after every pass to stderr"),
		},
	}

	fmtCmd := &cli.Command{
		Name:        "fmt",
		Description: "parse and print programs",
		Action:      fmtAct,
		Args:        cli.Args{},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "parse and type check programs",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "ecc",
		Description: "ecc compiles monadic programs into x86-64 executables",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "tlog verbosity filter"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			asmCmd,
			fmtCmd,
			checkCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	w := tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags)

	tlog.DefaultLogger = tlog.New(w)

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func newCompiler(c *cli.Command) *compiler.Compiler {
	comp := compiler.New()

	if t := c.String("target"); t != "" {
		comp.Target = t
	}

	if c.Bool("debug") {
		comp.Debug = os.Stderr
	}

	return comp
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	comp := newCompiler(c)

	if len(c.Args) > 1 && (c.String("out") != "" || c.String("object-out") != "" || c.String("asm-out") != "") {
		return errors.New("output paths can't be set for more than one file")
	}

	for _, a := range c.Args {
		paths := compiler.Paths{
			Asm:    c.String("asm-out"),
			Object: c.String("object-out"),
			Exe:    c.String("out"),
		}

		_, err = comp.Build(ctx, a, paths)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}
	}

	return nil
}

func asmAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	comp := newCompiler(c)

	for _, a := range c.Args {
		asm, err := comp.CompileFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		_, err = os.Stdout.Write(asm)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func fmtAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	comp := compiler.New()

	for _, a := range c.Args {
		p, err := comp.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "fmt %v", a)
		}

		b, err := format.Format(ctx, nil, p)
		if err != nil {
			return errors.Wrap(err, "fmt %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func checkAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	comp := compiler.New()

	for _, a := range c.Args {
		_, _, err = comp.CheckFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "check %v", a)
		}
	}

	return nil
}
