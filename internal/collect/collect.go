// Package collect gathers the input files of a bundle: it discovers them on
// disk, optionally from a YAML manifest, and reads them concurrently.
package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned when discovery finds nothing to bundle.
var ErrNoFiles = errors.New("collect: no input files")

// File is one input destined for a bundle entry.
type File struct {
	Name string // entry name, slash separated
	Path string // location on disk

	// Type overrides the entry type tag when TypeSet is true.
	Type    string
	TypeSet bool

	// Compress names the entry codec ("" means the caller's default).
	Compress string

	Data []byte
}

// Dir lists the regular files under dir. Entry names are relative to dir
// with forward slashes. Without recursive only the top level is listed.
// Symbolic links to regular files are included; links to directories are
// not followed. The result is sorted by name.
func Dir(dir string, recursive bool) ([]File, error) {
	root := filepath.Clean(dir)
	var files []File
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root {
				return nil
			}
			if de.IsDir() {
				if !recursive {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !de.IsRegular() {
				if !de.IsSymlink() {
					return nil
				}
				fi, err := os.Stat(path)
				if err != nil || !fi.Mode().IsRegular() {
					return nil
				}
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, File{Name: filepath.ToSlash(rel), Path: path})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("collect: walk %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Paths turns command line arguments into files. A plain file keeps the
// path it was given as its entry name; a directory is expanded with Dir and
// its entries are prefixed with the directory's base name.
func Paths(paths []string, recursive bool) ([]File, error) {
	var files []File
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		if !fi.IsDir() {
			files = append(files, File{Name: entryName(p), Path: p})
			continue
		}
		sub, err := Dir(p, recursive)
		if err != nil {
			return nil, err
		}
		prefix := filepath.Base(filepath.Clean(p))
		for _, f := range sub {
			if prefix != "." && prefix != string(filepath.Separator) {
				f.Name = prefix + "/" + f.Name
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func entryName(p string) string {
	name := filepath.ToSlash(filepath.Clean(p))
	name = strings.TrimPrefix(name, "./")
	return name
}

// Read loads the content of every file, at most jobs at a time. jobs < 1
// means one. On error the first failure is returned and files may be
// partially filled.
func Read(ctx context.Context, files []File, jobs int) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if jobs < 1 {
		jobs = 1
	}
	logger := zerolog.Ctx(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i := range files {
		f := &files[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("collect: %w", err)
			}
			f.Data = data
			logger.Debug().Str("name", f.Name).Int("bytes", len(data)).Msg("read input")
			return nil
		})
	}
	return eg.Wait()
}
