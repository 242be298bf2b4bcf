package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"

	wbundle "github.com/logicossoftware/go-wbundle"
)

func lsCommand(ctx context.Context, args []string, stdout io.Writer) error {
	var cf cipherFlags
	var digest bool
	fs := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	cf.register(fs)
	fs.BoolVar(&digest, "digest", false, "print the BLAKE3 digest of each stored payload")
	fs.Usage = func() {
		fmt.Fprintf(stdout, "Usage: wbundle ls [options] bundle...\n\n%s", fs.FlagUsages())
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
	b, err := loadBundles(ctx, fs.Args(), opts)
	if err != nil {
		return err
	}

	entries := b.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		if digest {
			sum := e.Digest()
			fmt.Fprintf(stdout, "%s\t%s\t%d\t%s\n", e.Name, e.Type, e.Len(), hex.EncodeToString(sum[:]))
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\t%d\n", e.Name, e.Type, e.Len())
	}
	return nil
}

// loadBundles merges every bundle in paths into one, later files winning.
func loadBundles(ctx context.Context, paths []string, opts []wbundle.Option) (*wbundle.Bundle, error) {
	b := wbundle.New(opts...)
	for _, p := range paths {
		if err := b.LoadFile(ctx, p); err != nil {
			return nil, decodeExit(p, err)
		}
	}
	return b, nil
}
