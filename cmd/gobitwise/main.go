// Command gobitwise is a CLI tool for checking memory layout
// definitions and inspecting binary images through them.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/gobitwise/gobitwise"
)

// Exit codes.
const (
	exitOK    = 0 // success
	exitError = 1 // user error or processing failure
	exitDiag  = 2 // definition bound, but with error diagnostics
)

const usage = `gobitwise - memory layout checker and image inspector

Usage:
  gobitwise <command> [options] [arguments]

Commands:
  check    Parse a layout definition and report problems
  offsets  Show the byte offset and size of every field
  dump     Bind a layout to an image and dump the values as YAML
  version  Show version

Common options:
  -v, --verbose     Enable debug logging
  -vv               Enable trace logging (implies -v)
  -h, --help        Show help

Examples:
  gobitwise check radio.layout
  gobitwise check -i factory.img radio.layout
  gobitwise offsets radio.layout
  gobitwise dump radio.layout saved.img
`

type cli struct {
	verbose  int
	helpFlag bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	var c cli
	args := os.Args[1:]
	var cmdArgs []string
	var cmd string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			c.helpFlag = true
		case arg == "-v" || arg == "--verbose":
			if c.verbose < 1 {
				c.verbose = 1
			}
		case arg == "-vv":
			c.verbose = 2
		case len(arg) > 0 && arg[0] == '-':
			cmdArgs = append(cmdArgs, arg)
		default:
			if cmd == "" {
				cmd = arg
			} else {
				cmdArgs = append(cmdArgs, arg)
			}
		}
	}

	if c.helpFlag && cmd == "" {
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	}

	if cmd == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}

	switch cmd {
	case "check":
		return c.cmdCheck(cmdArgs)
	case "offsets":
		return c.cmdOffsets(cmdArgs)
	case "dump":
		return c.cmdDump(cmdArgs)
	case "version":
		printVersion()
		return exitOK
	case "help":
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}
}

func (c *cli) options() []gobitwise.Option {
	if c.verbose == 0 {
		return nil
	}
	level := slog.LevelDebug
	if c.verbose >= 2 {
		level = gobitwise.LevelTrace
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return []gobitwise.Option{gobitwise.WithLogger(logger)}
}

// parseLayout reads and parses the layout definition file.
func (c *cli) parseLayout(path string) (*gobitwise.Definition, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gobitwise.Parse(string(text), c.options()...)
}

func printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Printf("gobitwise %s\n", version)
}

func printError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
