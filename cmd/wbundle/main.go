// wbundle packs files into a PNG image and unpacks them again.
//
// Usage:
//
//	wbundle ls [options] bundle...
//	wbundle encode [options] files...
//	wbundle decode [options] bundle...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	wbundle "github.com/logicossoftware/go-wbundle"
)

const (
	exitGeneric       = 1
	exitInputMissing  = 2
	exitNoFiles       = 3
	exitOutputMissing = 4
	exitCapacity      = 5
	exitDecodeFailure = 6
)

const (
	defaultEncodeOut = "data.wb.png"
	defaultDecodeOut = "."

	envKey          = "WBUNDLE_KEY"
	envMaxDimension = "WBUNDLE_MAX_DIMENSION"
	envFormat       = "WBUNDLE_FORMAT"
)

const usage = `wbundle - pack files into a PNG image

Usage:
  wbundle <command> [options] files...

Commands:
  ls       List the files in one or more bundles
  encode   Encode files into a bundle
  decode   Extract files from one or more bundles

Run "wbundle <command> --help" for the options of a command.
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("wbundle failed")
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitGeneric)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return exitf(exitGeneric, "no command given")
	}
	switch args[0] {
	case "ls":
		return lsCommand(ctx, args[1:], stdout)
	case "encode":
		return encodeCommand(ctx, args[1:], stdout)
	case "decode":
		return decodeCommand(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return exitf(exitGeneric, "unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func exitf(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return &exitError{code: code, err: err}
}

// decodeExit classifies a load error.
func decodeExit(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return withExit(exitInputMissing, err)
	case errors.Is(err, context.Canceled):
		return withExit(exitGeneric, err)
	default:
		return withExit(exitDecodeFailure, fmt.Errorf("decode %s: %w", path, err))
	}
}

// cipherFlags are shared by every command.
type cipherFlags struct {
	key     string
	scope   string
	verbose bool
}

func (c *cipherFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.key, "key", "k", getEnv(envKey, ""), "XOR the bundle with this key (env "+envKey+")")
	fs.StringVar(&c.scope, "scope", "buffer", "bytes covered by the key: buffer or payload")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
}

func (c *cipherFlags) options() ([]wbundle.Option, error) {
	if c.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	scope, err := wbundle.ParseCipherScope(c.scope)
	if err != nil {
		return nil, exitf(exitGeneric, "%v", err)
	}
	return []wbundle.Option{
		wbundle.WithKeyString(c.key),
		wbundle.WithCipherScope(scope),
		wbundle.WithLogger(log.Logger),
	}, nil
}

// parseFlags parses args and reports whether help was requested.
func parseFlags(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, exitf(exitGeneric, "%v", err)
	}
	return false, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
