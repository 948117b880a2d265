/*
Compost runs a single Compost source file and prints the result of its Main
let to stdout.

Usage:

	compost [flags] FILE

The flags are:

	-v, --version
		Give the current version of Compost and then exit.

Compost reads FILE, compiles it against the stdlib prelude, evaluates its
top-level Main let, and prints the result followed by a newline. Any lexer,
parser, semantic, or runtime error is printed to stderr with its line and
column in FILE, and the program exits with a nonzero status.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/compost"
	"github.com/dekarrin/compost/internal/config"
	"github.com/dekarrin/compost/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitCompileError indicates a lexer, parser, or semantic-analysis
	// failure.
	ExitCompileError

	// ExitRuntimeError indicates a failure while evaluating Main.
	ExitRuntimeError

	// ExitUsageError indicates a problem with the command line itself.
	ExitUsageError
)

var (
	returnCode  int   = ExitSuccess
	flagVersion *bool = pflag.BoolP("version", "v", false, "Gives the version info")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: compost [flags] FILE\n")
		returnCode = ExitUsageError
		return
	}

	path := pflag.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitUsageError
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading %s: %s\n", config.FileName, err.Error())
		returnCode = ExitUsageError
		return
	}

	eng, err := compost.New(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, compost.Render(err, cfg.Display.Width))
		returnCode = ExitCompileError
		return
	}

	out, err := eng.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, compost.Render(err, cfg.Display.Width))
		returnCode = ExitRuntimeError
		return
	}

	fmt.Printf("%s\n", out)
}
