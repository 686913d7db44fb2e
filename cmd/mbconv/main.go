// mbconv compiles Modbus device descriptions into bus objects for the
// building controller runtime.
//
// Usage:
//
//	mbconv compile -device boiler.json [-script modbus_rtu.lua] [-out bus.json] [-config mbconv.yaml]
//	mbconv serve [-config mbconv.yaml]
//	mbconv history [-config mbconv.yaml] [-limit 20] [-status invalid]
//	mbconv version
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage is returned for malformed command lines; the usage text has
// already been printed.
var errUsage = errors.New("invalid usage")

// errHelp ends a command after its flag help was printed.
var errHelp = errors.New("help requested")

const usageText = `Usage: mbconv <command> [flags]

Commands:
  compile   compile a device description into a bus object
  serve     run the HTTP compile service
  history   list recent compile runs
  version   print version information

Run 'mbconv <command> -h' for command flags.
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run dispatches a command line, separated from main for testability.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	err := dispatch(ctx, args, stdout, stderr)
	if errors.Is(err, errHelp) {
		return nil
	}
	return err
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return errUsage
	}

	switch args[0] {
	case "compile":
		return runCompile(ctx, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "history":
		return runHistory(ctx, args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "mbconv %s (commit %s, built %s)\n", version, commit, date)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usageText)
		return errUsage
	}
}

// parseFlags parses a subcommand's flags, mapping -h to a clean exit.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return errUsage
	}
	return nil
}

func runCompile(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	devicePath := fs.String("device", "", "device description (JSON)")
	scriptPath := fs.String("script", "", "bus script; defaults to the first match of converter.script_glob next to the device file")
	outPath := fs.String("out", "-", "output file, - for stdout")
	configPath := fs.String("config", "", "application config (YAML)")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	if *devicePath == "" {
		fmt.Fprintln(stderr, "compile: -device is required")
		fs.Usage()
		return errUsage
	}

	a, err := newApp(ctx, configPathOrEnv(*configPath))
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := a.converter()
	if err != nil {
		return err
	}

	res, err := conv.ConvertFile(ctx, *devicePath, *scriptPath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encodeBus(&buf, res, a.cfg.Converter.WriteBOM); err != nil {
		return err
	}

	if *outPath == "-" {
		_, err = stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // bus objects are imported by other tools
		return fmt.Errorf("writing %s: %w", *outPath, err)
	}
	a.log.Info("bus config written", "path", *outPath, "notices", len(res.Notices()))
	return nil
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "application config (YAML)")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}

	a, err := newApp(ctx, configPathOrEnv(*configPath))
	if err != nil {
		return err
	}
	defer a.Close()

	return a.serve(ctx)
}

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "application config (YAML)")
	limit := fs.Int("limit", 20, "number of runs to list")
	status := fs.String("status", "", "only list runs with this status (ok, invalid, error)")
	device := fs.String("device", "", "only list runs of this device")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}

	a, err := newApp(ctx, configPathOrEnv(*configPath))
	if err != nil {
		return err
	}
	defer a.Close()

	return a.printHistory(ctx, stdout, *limit, *status, *device)
}

// configPathOrEnv falls back to MBCONV_CONFIG when no -config flag is given.
// An empty result selects the built-in defaults.
func configPathOrEnv(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("MBCONV_CONFIG")
}
