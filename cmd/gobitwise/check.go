package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gobitwise/gobitwise"
	"github.com/gobitwise/gobitwise/peg"
)

const checkUsage = `gobitwise check - Parse a layout definition and report problems

Usage:
  gobitwise check [options] LAYOUT

Options:
  -i, --image FILE   Also bind against this image and report diagnostics
  -s, --size BYTES   Bind against a zeroed buffer of this size instead
  -h, --help         Show help

Without -i or -s only the syntax is checked; binding additionally
verifies the layout fits and surfaces duplicate names, suspicious
seeks, and unaccounted bitfield bits.

Examples:
  gobitwise check radio.layout
  gobitwise check -i factory.img radio.layout
  gobitwise check -s 0x2000 radio.layout
`

func (c *cli) cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, checkUsage) }

	image := fs.String("i", "", "image file to bind against")
	fs.StringVar(image, "image", "", "image file to bind against")
	size := fs.String("s", "", "bind against a zeroed buffer of this size")
	fs.StringVar(size, "size", "", "bind against a zeroed buffer of this size")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help {
		_, _ = fmt.Fprint(os.Stdout, checkUsage)
		return exitOK
	}
	if fs.NArg() != 1 {
		printError("expected exactly one layout file")
		fmt.Fprint(os.Stderr, checkUsage)
		return exitError
	}

	def, err := c.parseLayout(fs.Arg(0))
	if err != nil {
		var serr *peg.SyntaxError
		if errors.As(err, &serr) {
			printError("%s: %v", fs.Arg(0), serr)
		} else {
			printError("%v", err)
		}
		return exitError
	}
	fmt.Printf("%s: %d top-level declarations\n", fs.Arg(0), def.Decls())

	buf, err := checkBuffer(*image, *size)
	if err != nil {
		printError("%v", err)
		return exitError
	}
	if buf == nil {
		return exitOK
	}

	_, diags, err := def.Bind(buf, c.options()...)
	if err != nil {
		printError("bind: %v", err)
		return exitError
	}

	status := exitOK
	for _, d := range diags {
		fmt.Println(d)
		if d.Severity == gobitwise.SeverityError {
			status = exitDiag
		}
	}
	if len(diags) == 0 {
		fmt.Println("bind clean")
	}
	return status
}

// checkBuffer builds the buffer to bind against, or nil when only a
// syntax check was requested.
func checkBuffer(image, size string) (gobitwise.Buffer, error) {
	switch {
	case image != "":
		data, err := os.ReadFile(image)
		if err != nil {
			return nil, err
		}
		return gobitwise.NewMap(data), nil
	case size != "":
		n, err := parseSize(size)
		if err != nil {
			return nil, err
		}
		return gobitwise.NewMap(make([]byte, n)), nil
	default:
		return nil, nil
	}
}
