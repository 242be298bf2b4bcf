package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	wbundle "github.com/logicossoftware/go-wbundle"
	"github.com/logicossoftware/go-wbundle/internal/collect"
)

type encodeFlags struct {
	cipherFlags
	output       string
	input        string
	recursive    bool
	add          bool
	maxDimension int
	format       string
	compress     string
	manifest     string
	jobs         int
	args         []string
}

func encodeCommand(ctx context.Context, args []string, stdout io.Writer) error {
	var f encodeFlags
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	f.register(fs)
	fs.StringVarP(&f.output, "output", "o", defaultEncodeOut, "bundle to write")
	fs.StringVarP(&f.input, "input", "i", "", "directory whose files are encoded")
	fs.BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories")
	fs.BoolVarP(&f.add, "add", "a", false, "add to the existing bundle at --output instead of replacing it")
	fs.IntVar(&f.maxDimension, "max-dimension", getEnvInt(envMaxDimension, wbundle.DefaultMaxDimension), "maximum image width and height (env "+envMaxDimension+")")
	fs.StringVar(&f.format, "format", getEnv(envFormat, "png"), "image container: png or tiff (env "+envFormat+")")
	fs.StringVar(&f.compress, "compress", "none", "entry compression: none, zip, zstd, lz4 or br")
	fs.StringVar(&f.manifest, "manifest", "", "YAML manifest listing the entries")
	fs.IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "files read in parallel")
	fs.Usage = func() {
		fmt.Fprintf(stdout, "Usage: wbundle encode [options] files...\n\n%s", fs.FlagUsages())
	}
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	f.args = fs.Args()

	opts, err := f.options()
	if err != nil {
		return err
	}
	format, err := wbundle.ParseFormat(f.format)
	if err != nil {
		return exitf(exitGeneric, "%v", err)
	}
	defaultComp, err := wbundle.ParseCompression(f.compress)
	if err != nil {
		return exitf(exitGeneric, "%v", err)
	}
	opts = append(opts, wbundle.WithFormat(format), wbundle.WithMaxDimension(f.maxDimension))

	files, err := f.collect()
	if err != nil {
		return err
	}
	if err := checkOutputDir(f.output); err != nil {
		return err
	}

	b := wbundle.New(opts...)
	if f.add {
		if err := b.LoadFile(ctx, f.output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return decodeExit(f.output, err)
		}
	}

	if err := collect.Read(log.Logger.WithContext(ctx), files, f.jobs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return withExit(exitInputMissing, err)
		}
		return withExit(exitGeneric, err)
	}
	for _, file := range files {
		entryOpts, err := fileOptions(file, defaultComp)
		if err != nil {
			return err
		}
		if err := b.Add(file.Name, file.Data, entryOpts...); err != nil {
			return withExit(exitGeneric, fmt.Errorf("add %s: %w", file.Path, err))
		}
	}

	stats, err := b.WriteFile(ctx, f.output)
	if err != nil {
		if errors.Is(err, wbundle.ErrCapacityExceeded) {
			return withExit(exitCapacity, err)
		}
		return withExit(exitGeneric, err)
	}
	fmt.Fprintf(stdout, "Wrote %d bytes to %s. Original %d, compressed %.2f%%\n",
		stats.Size, f.output, stats.RawSize, 100*stats.Ratio())
	return nil
}

// collect gathers the input files from the manifest, --input and the
// positional arguments, in that order.
func (f *encodeFlags) collect() ([]collect.File, error) {
	var files []collect.File
	if f.manifest != "" {
		m, err := collect.LoadManifest(f.manifest)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, withExit(exitInputMissing, err)
			}
			return nil, withExit(exitGeneric, err)
		}
		mf, err := m.Files()
		if err != nil && !errors.Is(err, collect.ErrNoFiles) {
			return nil, withExit(exitGeneric, err)
		}
		files = append(files, mf...)
	}
	if f.input != "" {
		fi, err := os.Stat(f.input)
		if err != nil || !fi.IsDir() {
			return nil, exitf(exitInputMissing, "input directory %s not found", f.input)
		}
		dir, err := collect.Dir(f.input, f.recursive)
		if err != nil {
			return nil, withExit(exitGeneric, err)
		}
		files = append(files, dir...)
	}
	plain, err := collect.Paths(f.args, f.recursive)
	if err != nil {
		return nil, withExit(exitInputMissing, err)
	}
	files = append(files, plain...)
	if len(files) == 0 {
		return nil, withExit(exitNoFiles, collect.ErrNoFiles)
	}
	return files, nil
}

func fileOptions(file collect.File, defaultComp wbundle.Compression) ([]wbundle.EntryOption, error) {
	comp := defaultComp
	if file.Compress != "" {
		c, err := wbundle.ParseCompression(file.Compress)
		if err != nil {
			return nil, exitf(exitGeneric, "%s: %v", file.Name, err)
		}
		comp = c
	}
	opts := []wbundle.EntryOption{wbundle.WithCompression(comp)}
	if file.TypeSet {
		opts = append(opts, wbundle.WithType(file.Type))
	}
	return opts, nil
}

func checkOutputDir(output string) error {
	dir := filepath.Dir(output)
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return exitf(exitOutputMissing, "output directory %s not found", dir)
	}
	return nil
}
