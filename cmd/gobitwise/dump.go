package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gobitwise/gobitwise/mem"
)

const dumpUsage = `gobitwise dump - Bind a layout to an image and dump the values as YAML

Usage:
  gobitwise dump [options] LAYOUT IMAGE

Options:
  -p, --path PATH   Dump only the element at PATH (e.g. memory[0])
  -x, --hex         Print integer values in hexadecimal
  -h, --help        Show help

char arrays print as strings and lbcd/bbcd arrays as their packed
decimal value; everything else prints field by field in declaration
order.

Examples:
  gobitwise dump radio.layout saved.img
  gobitwise dump -p memory[3] radio.layout saved.img
  gobitwise dump -x radio.layout saved.img | less
`

func (c *cli) cmdDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, dumpUsage) }

	path := fs.String("p", "", "dump only this element")
	fs.StringVar(path, "path", "", "dump only this element")
	hex := fs.Bool("x", false, "hexadecimal integers")
	fs.BoolVar(hex, "hex", false, "hexadecimal integers")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help {
		_, _ = fmt.Fprint(os.Stdout, dumpUsage)
		return exitOK
	}
	if fs.NArg() != 2 {
		printError("expected a layout file and an image file")
		fmt.Fprint(os.Stderr, dumpUsage)
		return exitError
	}

	def, err := c.parseLayout(fs.Arg(0))
	if err != nil {
		printError("%v", err)
		return exitError
	}
	image, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		printError("%v", err)
		return exitError
	}

	root, diags, err := def.Bind(mem.NewMap(image), c.options()...)
	if err != nil {
		printError("bind: %v", err)
		return exitError
	}
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d)
	}

	var target mem.Element = root
	if *path != "" {
		target, err = root.Path(*path)
		if err != nil {
			printError("%v", err)
			return exitError
		}
	}

	d := dumper{hex: *hex}
	out, err := yaml.Marshal(d.node(target))
	if err != nil {
		printError("encode: %v", err)
		return exitError
	}
	os.Stdout.Write(out)
	return exitOK
}

type dumper struct {
	hex bool
}

// node converts a bound element to a yaml.Node tree. Mapping nodes are
// built by hand so fields keep their declaration order.
func (d dumper) node(el mem.Element) *yaml.Node {
	switch v := el.(type) {
	case *mem.Struct:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range v.Fields() {
			child, err := v.Field(name)
			if err != nil {
				continue
			}
			n.Content = append(n.Content, scalar(name), d.node(child))
		}
		return n

	case *mem.Array:
		if text, err := v.Text(); err == nil {
			return quoted(strings.TrimRight(text, "\x00\xff"))
		}
		if bcd, err := v.BCDValue(); err == nil {
			return d.intNode(bcd)
		}
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, child := range v.Elements() {
			n.Content = append(n.Content, d.node(child))
		}
		return n

	case *mem.Int:
		return d.intNode(v.Value())
	case *mem.Bits:
		return d.intNode(v.Value())
	case *mem.BCD:
		return d.intNode(v.Value())
	case *mem.Char:
		return quoted(string(rune(v.Value())))
	default:
		return scalar(fmt.Sprintf("%v", el))
	}
}

func (d dumper) intNode(v int64) *yaml.Node {
	if d.hex {
		return scalar(fmt.Sprintf("%#x", v))
	}
	return scalar(strconv.FormatInt(v, 10))
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: s}
}
