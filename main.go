// Command viua runs a single compiled Viua module: it loads the module
// file, boots a Kernel and its three scheduler pools, bootstraps the main
// process, and runs until the main process settles, exiting 0 on clean
// termination or 1 on startup failure or an unhandled exception, per §6.
//
// This replaces the teacher's GVM assembler/debugger CLI: the flag-parsing
// shape (flag.FlagSet, a single positional operand) is kept, but the
// assemble-then-run body is not, since this runtime only ever loads an
// already-compiled module.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"viua/internal/config"
	"viua/internal/kernel"
	"viua/internal/loader"
	"viua/internal/scheduler"
	"viua/internal/vmlog"
)

const version = "viua 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("viua", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	help := fs.Bool("h", false, "print usage and exit")
	fs.BoolVar(help, "help", false, "print usage and exit")
	showVersion := fs.Bool("V", false, "print version and exit")
	fs.BoolVar(showVersion, "version", false, "print version and exit")
	verbose := fs.Bool("v", false, "enable verbose (debug) tracing")
	fs.BoolVar(verbose, "verbose", false, "enable verbose (debug) tracing")
	info := fs.Bool("i", false, "print scheduler counts and version")
	fs.BoolVar(info, "info", false, "print scheduler counts and version")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: viua [-h|--help] [-V|--version] [-v|--verbose] [-i|--info] <module>")
	}
	if err := fs.Parse(argv); err != nil {
		return 1
	}

	if *help {
		fs.Usage()
		return 0
	}
	if *showVersion {
		fmt.Println(version)
		return 0
	}

	cfg := config.FromEnviron()
	if *info {
		fmt.Printf("%s\nprocess schedulers: %d\nffi schedulers: %d\nio schedulers: %d\n",
			version, cfg.ProcessSchedulers, cfg.FFISchedulers, cfg.IOSchedulers)
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	modulePath := fs.Arg(0)

	log := vmlog.New(*verbose)
	defer log.Sync()

	return boot(modulePath, cfg, log)
}

func boot(modulePath string, cfg config.Config, log *vmlog.Logger) int {
	mod, err := loader.Load(modulePath)
	if err != nil {
		log.Error("failed to load module", "path", modulePath, "error", err)
		return 1
	}
	if mod.Type != loader.Executable {
		log.Error("module is not executable", "path", modulePath)
		return 1
	}

	k := kernel.New(mod, cfg, log)

	procPool := scheduler.NewProcessPool(k, cfg.ProcessSchedulers, cfg.Quantum, log)
	ffiPool := scheduler.NewFFIPool(cfg.FFISchedulers, log)
	ioPool := scheduler.NewIOPool(k, cfg.IOSchedulers, log)

	k.AttachPool(procPool)
	k.AttachFFIPool(ffiPool)
	k.AttachIOPool(ioPool)

	if err := k.Preimport(); err != nil {
		log.Error("failed to preimport native library", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	procPool.Start(ctx)
	ffiPool.Start(ctx)
	ioPool.Start(ctx)
	defer procPool.Stop()
	defer ffiPool.Stop()
	defer ioPool.Stop()

	if _, err := k.Boot("main"); err != nil {
		log.Error("failed to bootstrap main process", "error", err)
		return 1
	}

	<-procPool.Done()
	return k.ExitCode()
}
