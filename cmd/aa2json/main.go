// aa2json - convert AA documents to JSON
//
// Usage:
//
//	aa2json [flags] [FILE]
//
// Reads FILE (or stdin when FILE is absent or "-"), decodes the AA
// document and writes it as JSON followed by a newline. Gzip and zstd
// compressed inputs are decompressed transparently.
//
// Exit status is 0 on success, 1 when the input cannot be read or
// decoded and 2 on usage errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const version = "0.1.0"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one aa2json invocation and returns the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		ctx:    ctx,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logOut: stderr,
	}
	return a.run(args)
}

// app holds the process streams so tests can substitute them.
type app struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logOut io.Writer
}

func (a *app) run(args []string) int {
	fl, err := parseFlags(args, a.stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		a.errorf("%v", err)
		return exitUsage
	}
	if fl.version {
		fmt.Fprintf(a.stdout, "aa2json %s\n", version)
		return exitOK
	}

	cfg, err := loadConfig(fl)
	if err != nil {
		a.errorf("%v", err)
		return exitUsage
	}

	log, err := newLogger(a.logOut, cfg.LogLevel)
	if err != nil {
		a.errorf("%v", err)
		return exitUsage
	}

	conv, err := newConverter(cfg, log)
	if err != nil {
		a.errorf("%v", err)
		return exitUsage
	}

	if fl.watch {
		err = a.watch(conv, fl.file, fl.output)
	} else {
		err = a.convertOnce(conv, fl.file, fl.output)
	}
	if err != nil {
		log.Debug().Err(err).Msg("conversion failed")
		a.errorf("%v", err)
		return exitError
	}
	return exitOK
}

func (a *app) convertOnce(conv *converter, file, output string) error {
	doc, err := conv.load(file, a.stdin)
	if err != nil {
		return err
	}
	if output == "" {
		return conv.convert(doc, a.stdout)
	}
	return conv.convertToFile(doc, output)
}

func (a *app) errorf(format string, args ...any) {
	fmt.Fprintf(a.stderr, "aa2json: "+format+"\n", args...)
}

// newLogger builds the console logger used for diagnostics on stderr.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "aa2json").Logger(), nil
}
