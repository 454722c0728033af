package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/gobitwise/gobitwise"
	"github.com/gobitwise/gobitwise/mem"
)

const offsetsUsage = `gobitwise offsets - Show the byte offset and size of every field

Usage:
  gobitwise offsets [options] LAYOUT

Options:
  -s, --size BYTES   Size of the scratch buffer to bind against
                     (default 0x10000)
  -h, --help         Show help

Examples:
  gobitwise offsets radio.layout
  gobitwise offsets -s 0x2000 radio.layout
`

func (c *cli) cmdOffsets(args []string) int {
	fs := flag.NewFlagSet("offsets", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, offsetsUsage) }

	size := fs.String("s", "0x10000", "scratch buffer size")
	fs.StringVar(size, "size", "0x10000", "scratch buffer size")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help {
		_, _ = fmt.Fprint(os.Stdout, offsetsUsage)
		return exitOK
	}
	if fs.NArg() != 1 {
		printError("expected exactly one layout file")
		fmt.Fprint(os.Stderr, offsetsUsage)
		return exitError
	}

	def, err := c.parseLayout(fs.Arg(0))
	if err != nil {
		printError("%v", err)
		return exitError
	}

	n, err := parseSize(*size)
	if err != nil {
		printError("%v", err)
		return exitError
	}
	root, _, err := def.Bind(gobitwise.NewMap(make([]byte, n)), c.options()...)
	if err != nil {
		printError("bind: %v", err)
		return exitError
	}

	fmt.Printf("%-8s %-8s %s\n", "OFFSET", "SIZE", "FIELD")
	printOffsets(root, "")
	return exitOK
}

// printOffsets walks the tree depth-first in declaration order. Sizes
// are printed in bytes, with a b suffix for sub-byte fields.
func printOffsets(el mem.Element, path string) {
	switch v := el.(type) {
	case *mem.Struct:
		for _, name := range v.Fields() {
			child, err := v.Field(name)
			if err != nil {
				continue
			}
			printOffsets(child, path+"."+name)
		}
	case *mem.Array:
		printRow(el, path)
		// Elements of a struct array get their own rows; leaf arrays
		// are compact enough as a single row.
		for i, child := range v.Elements() {
			if _, ok := child.(*mem.Struct); ok {
				printOffsets(child, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	default:
		printRow(el, path)
	}
}

func printRow(el mem.Element, path string) {
	size := strconv.Itoa(el.Size()/8) + "  "
	if el.Size()%8 != 0 {
		size = strconv.Itoa(el.Size()) + "b "
	}
	fmt.Printf("%#-8x %-8s %s\n", el.Offset(), size, path)
}

// parseSize parses a decimal or 0x-prefixed byte count.
func parseSize(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int(n), nil
}
