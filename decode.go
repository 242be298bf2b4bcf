package wbundle

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Decode reads a bundle image from r.
//
// The decoding process:
//  1. Decodes the image container (PNG or TIFF, detected from its magic)
//  2. Drops the alpha channel to recover the raw buffer
//  3. Reverses the cipher if a key is configured
//  4. Parses the header and slices each entry out of the buffer
//
// Decode returns ErrCodec if r is not a supported image, ErrMalformedHeader
// if the header does not parse, ErrTruncatedPayload if an entry runs past the
// end of the buffer, and ErrLimitExceeded if a decode limit is hit.
func Decode(r io.Reader, opts ...Option) (*Bundle, error) {
	b := New(opts...)
	if err := b.Load(r); err != nil {
		return nil, err
	}
	return b, nil
}

// Open decodes the bundle image at path.
func Open(ctx context.Context, path string, opts ...Option) (*Bundle, error) {
	b := New(opts...)
	if err := b.LoadFile(ctx, path); err != nil {
		return nil, err
	}
	return b, nil
}

// Load decodes a bundle image from r and merges its entries into b. Entries
// already present under the same name are replaced. On error b is left
// unchanged.
func (b *Bundle) Load(r io.Reader) error {
	return b.load(context.Background(), r)
}

// LoadFile is Load for the file at path.
func (b *Bundle) LoadFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return b.load(ctx, f)
}

func (b *Bundle) load(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(&contextReader{ctx: ctx, r: r})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	raw, err := readCanvas(data, b.cfg.limits)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.loadRaw(raw)
}

// LoadRaw parses a raw buffer, as returned by [Bundle.Raw], and merges its
// entries into b. raw is not modified. On error b is left unchanged.
func (b *Bundle) LoadRaw(raw []byte) error {
	return b.loadRaw(append([]byte(nil), raw...))
}

// loadRaw deciphers raw in place and takes ownership of it.
func (b *Bundle) loadRaw(raw []byte) error {
	if err := b.checkScope(); err != nil {
		return err
	}
	if b.cfg.scope == ScopeBuffer {
		cipherRaw(raw, 0, b.cfg.key, ScopeBuffer)
	}
	records, payloadStart, err := parseHeader(raw, b.cfg.limits)
	if err != nil {
		return err
	}
	if b.cfg.scope == ScopePayload {
		cipherRaw(raw, payloadStart, b.cfg.key, ScopePayload)
	}
	spans, err := Spans(records, payloadStart, len(raw))
	if err != nil {
		return err
	}
	for i, rec := range records {
		s := spans[i]
		b.put(Entry{Name: rec.Name, Type: rec.Type, Data: raw[s.Start:s.End:s.End]})
	}

	b.cfg.logger.Debug().
		Int("entries", len(records)).
		Int("raw", len(raw)).
		Int("payload_start", payloadStart).
		Bool("keyed", b.Keyed()).
		Msg("bundle decoded")
	return nil
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
