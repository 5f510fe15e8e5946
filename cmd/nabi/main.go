// Command nabi loads extension modules into the in-memory host and calls
// their exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/native-abi/class"
	"github.com/wippyai/native-abi/config"
	"github.com/wippyai/native-abi/host"
	"github.com/wippyai/native-abi/internal/sample"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/value"
	"github.com/wippyai/native-abi/wasmext"
)

// listFlag collects a repeated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func main() {
	var (
		args, vars  listFlag
		configFile  = flag.String("config", "", "Path to YAML config (optional)")
		list        = flag.Bool("list", false, "List exports and exit")
		call        = flag.String("call", "", "Export to call: module.fn or module.Class.static")
		iter        = flag.String("iter", "", "Export to call and iterate the result")
		schema      = flag.Bool("schema", false, "Print the config JSON schema and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Var(&args, "arg", "Argument to pass (repeatable)")
	flag.Var(&vars, "var", "Global variable name=value (repeatable)")
	flag.Parse()

	styled = term.IsTerminal(int(os.Stdout.Fd()))

	if *schema {
		out, err := config.Schema()
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(out))
		return
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fatal(err)
		}
	}

	log, err := newLogger(cfg.Level())
	if err != nil {
		fatal(err)
	}
	defer func() { _ = log.Sync() }()
	class.SetLogger(log.Named("class"))
	module.SetLogger(log.Named("module"))
	host.SetLogger(log.Named("host"))
	wasmext.SetLogger(log.Named("wasm"))
	sample.SetLogger(log.Named("sample"))

	ctx := context.Background()
	s, err := openSession(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer s.close(ctx)

	if err := s.define(vars); err != nil {
		fatal(err)
	}

	switch {
	case *interactive:
		err = runInteractive(s)
	case *call != "":
		err = runCall(s, *call, args)
	case *iter != "":
		err = runIter(s, *iter, args)
	case *list:
		printExports(s)
	default:
		fmt.Fprintln(os.Stderr, "Usage: nabi [-config f] -list")
		fmt.Fprintln(os.Stderr, "       nabi [-config f] [-var a=1] -call module.fn [-arg v ...]")
		fmt.Fprintln(os.Stderr, "       nabi [-config f] -iter module.Class.new [-arg v ...]")
		fmt.Fprintln(os.Stderr, "       nabi -schema")
		fmt.Fprintln(os.Stderr, "       nabi [-config f] -i  (interactive mode)")
		os.Exit(1)
	}
	if err != nil {
		s.close(ctx)
		fatal(err)
	}
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printExports(s *session) {
	for _, name := range s.h.Modules() {
		fmt.Println(paint(titleStyle, name))
		for _, e := range s.exports() {
			if e.module != name {
				continue
			}
			fmt.Printf("  %-7s %s\n", paint(typeStyle, e.kind), paint(funcStyle, e.target()))
		}
	}
}

func runCall(s *session, target string, raw []string) error {
	out, err := s.call(target, parseArgs(raw))
	if err != nil {
		return fmt.Errorf("call %s: %w", target, err)
	}
	defer func() { _ = s.h.Drop(out) }()

	str, err := s.h.String(out)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s\n", paint(resultStyle, str))
	return nil
}

func runIter(s *session, target string, raw []string) error {
	out, err := s.call(target, parseArgs(raw))
	if err != nil {
		return fmt.Errorf("call %s: %w", target, err)
	}
	defer func() { _ = s.h.Drop(out) }()

	return s.h.Iterate(out, func(item value.Value) bool {
		fmt.Println(paint(resultStyle, value.Format(item)))
		return true
	})
}
