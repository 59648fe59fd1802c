package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

const usageText = `aa2json - convert AA documents to JSON

Usage:
  aa2json [flags] [FILE]

Reads FILE, or stdin when FILE is absent or "-".

Flags:
  -p, --pretty               Pretty-print the JSON output
  -s, --indent-spaces N      Indent with N spaces (1-255, default 4; requires --pretty)
  -t, --indent-tabs          Indent with tabs (requires --pretty)
  -o, --output FILE          Write to FILE instead of stdout
      --config FILE          Read settings from a TOML file
      --max-depth N          Maximum collection nesting (default 256)
      --charset NAME         Text encoding of strings: utf-8 or windows-1252
      --strict               Reject bytes after the document
      --max-input-bytes N    Maximum decompressed input size
      --log-level LEVEL      Diagnostics level: debug, info, warn, error
  -v, --verbose              Same as --log-level debug
      --watch                Convert again whenever FILE changes (requires FILE and --output)
      --version              Print version info

Settings are taken from defaults, then the config file ($AA2JSON_CONFIG or
--config), then AA2JSON_* environment variables, then flags.

Examples:
  aa2json -p catalog.aa
  aa2json -p -t -o catalog.json catalog.aa.gz
  zcat export.aa.gz | aa2json --charset windows-1252
`

// cliFlags holds the parsed command line.
type cliFlags struct {
	pretty        bool
	indentSpaces  int
	indentTabs    bool
	output        string
	configPath    string
	maxDepth      int
	charset       string
	strict        bool
	maxInputBytes int64
	logLevel      string
	verbose       bool
	watch         bool
	version       bool

	file string

	fs *pflag.FlagSet
}

// changed reports whether the flag with the given long name was set
// on the command line.
func (f *cliFlags) changed(name string) bool {
	return f.fs.Changed(name)
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := pflag.NewFlagSet("aa2json", pflag.ContinueOnError)
	f := &cliFlags{fs: fs}

	// Parse errors are returned and reported once by the caller.
	fs.SetOutput(io.Discard)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }

	fs.BoolVarP(&f.pretty, "pretty", "p", false, "")
	fs.IntVarP(&f.indentSpaces, "indent-spaces", "s", 0, "")
	fs.BoolVarP(&f.indentTabs, "indent-tabs", "t", false, "")
	fs.StringVarP(&f.output, "output", "o", "", "")
	fs.StringVar(&f.configPath, "config", "", "")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "")
	fs.StringVar(&f.charset, "charset", "", "")
	fs.BoolVar(&f.strict, "strict", false, "")
	fs.Int64Var(&f.maxInputBytes, "max-input-bytes", 0, "")
	fs.StringVar(&f.logLevel, "log-level", "", "")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "")
	fs.BoolVar(&f.watch, "watch", false, "")
	fs.BoolVar(&f.version, "version", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.version {
		return f, nil
	}

	switch positional := fs.Args(); len(positional) {
	case 0:
	case 1:
		if positional[0] != "-" {
			f.file = positional[0]
		}
	default:
		return nil, fmt.Errorf("too many arguments: %q", positional)
	}

	if f.changed("indent-spaces") && f.changed("indent-tabs") {
		return nil, errors.New("--indent-spaces and --indent-tabs are mutually exclusive")
	}
	if f.watch && (f.file == "" || f.output == "") {
		return nil, errors.New("--watch requires FILE and --output")
	}
	return f, nil
}
