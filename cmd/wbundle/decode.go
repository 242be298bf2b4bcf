package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	wbundle "github.com/logicossoftware/go-wbundle"
)

func decodeCommand(ctx context.Context, args []string, stdout io.Writer) error {
	var cf cipherFlags
	var output string
	var extract []string
	var raw bool
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	cf.register(fs)
	fs.StringVarP(&output, "output", "o", defaultDecodeOut, "directory, or file when extracting a single entry")
	fs.StringArrayVarP(&extract, "extract", "x", nil, "entry to extract (repeatable; default all)")
	fs.BoolVar(&raw, "raw", false, "write stored bytes without expanding +zip/+zstd/+lz4/+br entries")
	fs.Usage = func() {
		fmt.Fprintf(stdout, "Usage: wbundle decode [options] bundle...\n\n%s", fs.FlagUsages())
	}
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return exitf(exitInputMissing, "no bundle given")
	}

	opts, err := cf.options()
	if err != nil {
		return err
	}
	if !raw {
		opts = append(opts, wbundle.WithEntryCodecs())
	}
	b, err := loadBundles(ctx, fs.Args(), opts)
	if err != nil {
		return err
	}

	names := extract
	if len(names) == 0 {
		names = b.Names()
	}
	for _, name := range names {
		if !b.Has(name) {
			return exitf(exitGeneric, "%s is not in the bundle", name)
		}
	}

	fi, statErr := os.Stat(output)
	isDir := statErr == nil && fi.IsDir()
	if !isDir {
		if len(names) != 1 {
			return exitf(exitOutputMissing, "%s must be a directory when there is more than one file to extract", output)
		}
		if err := checkOutputDir(output); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := output
		if isDir {
			rel, err := wbundle.ExtractPath(name)
			if err != nil {
				return withExit(exitGeneric, err)
			}
			target = filepath.Join(output, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return withExit(exitGeneric, err)
			}
		}
		data, err := b.Read(name)
		if err != nil {
			return withExit(exitDecodeFailure, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return withExit(exitGeneric, err)
		}
		log.Debug().Str("entry", name).Str("path", target).Int("bytes", len(data)).Msg("extracted")
		fmt.Fprintf(stdout, "Extracted %s to %s\n", name, target)
	}
	return nil
}
