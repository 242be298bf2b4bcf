package wbundle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Raw assembles the raw buffer: header text, sentinel, then every payload in
// table order, with the cipher applied according to the configured scope.
func (b *Bundle) Raw() ([]byte, error) {
	raw, _, err := b.raw()
	return raw, err
}

func (b *Bundle) raw() ([]byte, int, error) {
	if err := b.checkScope(); err != nil {
		return nil, 0, err
	}
	records := make([]HeaderRecord, 0, len(b.order))
	payloadLen := 0
	for _, name := range b.order {
		e := b.entries[name]
		records = append(records, e.record())
		payloadLen += len(e.Data)
	}
	header := appendHeader(nil, records)

	raw := make([]byte, 0, len(header)+1+payloadLen)
	raw = append(raw, header...)
	raw = append(raw, Sentinel)
	payloadStart := len(raw)
	for _, name := range b.order {
		raw = append(raw, b.entries[name].Data...)
	}
	cipherRaw(raw, payloadStart, b.cfg.key, b.cfg.scope)
	return raw, payloadStart, nil
}

func (b *Bundle) checkScope() error {
	switch b.cfg.scope {
	case ScopeBuffer, ScopePayload:
		return nil
	default:
		return fmt.Errorf("wbundle: unknown cipher scope %v", b.cfg.scope)
	}
}

// Encode writes the bundle to w as an image in the configured format.
//
// The encoding process:
//  1. Builds the header from the entry table and appends the sentinel
//  2. Appends every payload in table order
//  3. Applies the cipher if a key is configured
//  4. Sizes the canvas with [Dimensions]
//  5. Lays the buffer over the canvas and compresses it losslessly
//
// Encode returns ErrCapacityExceeded if the canvas would exceed the maximum
// dimension, ErrIO if w fails, and ErrCodec if the image encoder fails.
func (b *Bundle) Encode(w io.Writer) (WriteStats, error) {
	return b.encode(context.Background(), w)
}

func (b *Bundle) encode(ctx context.Context, w io.Writer) (WriteStats, error) {
	raw, _, err := b.raw()
	if err != nil {
		return WriteStats{}, err
	}
	width, height, err := Dimensions(len(raw), Channels, b.cfg.maxDimension)
	if err != nil {
		return WriteStats{}, err
	}
	stats := WriteStats{
		Entries:  len(b.order),
		Width:    width,
		Height:   height,
		RawSize:  len(raw),
		Capacity: width * height * Channels,
	}

	cw := &countingWriter{ctx: ctx, w: w}
	if err := writeCanvas(cw, canvasImage(raw, width, height), b.cfg); err != nil {
		switch {
		case cw.err != nil && (errors.Is(cw.err, context.Canceled) || errors.Is(cw.err, context.DeadlineExceeded)):
			return stats, cw.err
		case cw.err != nil:
			return stats, fmt.Errorf("%w: %w", ErrIO, cw.err)
		case errors.Is(err, ErrCodec):
			return stats, err
		default:
			return stats, fmt.Errorf("%w: %v", ErrCodec, err)
		}
	}
	stats.Size = cw.n

	b.cfg.logger.Debug().
		Int("entries", stats.Entries).
		Int("raw", stats.RawSize).
		Int("width", width).
		Int("height", height).
		Int64("bytes", stats.Size).
		Str("format", b.cfg.format.String()).
		Bool("keyed", b.Keyed()).
		Msg("bundle encoded")
	return stats, nil
}

// WriteFile encodes the bundle to path. The image is written to a temporary
// file in the same directory and renamed into place only after it is
// complete, so a failed or cancelled write never leaves a partial container
// at path.
func (b *Bundle) WriteFile(ctx context.Context, path string) (WriteStats, error) {
	if err := ctx.Err(); err != nil {
		return WriteStats{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wbundle-*.tmp")
	if err != nil {
		return WriteStats{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	stats, err := b.encode(ctx, bw)
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Chmod(outputMode(path)); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIO, err)
	}
	success = true
	return stats, nil
}

// outputMode keeps the permissions of an existing file at path and
// defaults to 0644 for a new one.
func outputMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return 0o644
}

// countingWriter counts bytes, remembers the first write error and stops
// writing once ctx is done.
type countingWriter struct {
	ctx context.Context
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return 0, err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		c.err = err
	}
	return n, err
}
