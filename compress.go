package wbundle

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// zipEntryName is the only member of a CompZIP envelope.
const zipEntryName = "payload"

// envelopeLenSize is the uncompressed length prefix on compressed payloads.
const envelopeLenSize = 8

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func() (*zstd.Decoder, error) { return zstd.NewReader(nil) }
	zipCreate     = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	zipClose      = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen       = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll       = io.ReadAll
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite   = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
)

// entryCodec compresses and expands one entry payload. expand receives the
// uncompressed length recorded in the envelope.
type entryCodec struct {
	compress func(in []byte) ([]byte, error)
	expand   func(in []byte, expected uint64) ([]byte, error)
}

var entryCodecs = map[Compression]entryCodec{
	CompZIP:  {zipCompress, zipDecompress},
	CompZSTD: {zstdCompress, zstdDecompress},
	CompLZ4:  {lz4Compress, lz4Decompress},
	CompBR:   {brotliCompress, brotliDecompress},
}

// compressEntry wraps data in a compression envelope: an 8-byte
// little-endian uncompressed length followed by the compressed stream.
// CompNone returns data unchanged.
func compressEntry(comp Compression, data []byte) ([]byte, error) {
	if comp == CompNone {
		return data, nil
	}
	codec, ok := entryCodecs[comp]
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidPayload, comp)
	}
	compressed, err := codec.compress(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, envelopeLenSize, envelopeLenSize+len(compressed))
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	return append(out, compressed...), nil
}

// decompressEntry opens an envelope produced by compressEntry, refusing to
// expand beyond maxUncompressed.
func decompressEntry(comp Compression, payload []byte, maxUncompressed uint64) ([]byte, error) {
	if comp == CompNone {
		return payload, nil
	}
	codec, ok := entryCodecs[comp]
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidPayload, comp)
	}
	if len(payload) < envelopeLenSize {
		return nil, fmt.Errorf("%w: envelope shorter than its length prefix", ErrInvalidPayload)
	}
	want := binary.LittleEndian.Uint64(payload[:envelopeLenSize])
	if want > maxUncompressed {
		return nil, fmt.Errorf("%w: uncompressed length %d exceeds limit", ErrLimitExceeded, want)
	}
	out, err := codec.expand(payload[envelopeLenSize:], want)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("%w: expanded to %d bytes, envelope says %d", ErrInvalidPayload, len(out), want)
	}
	return out, nil
}

func zipCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := zipCompressNamed(&buf, zipEntryName, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// zipCompressNamed creates a ZIP archive with a single deflated member.
func zipCompressNamed(w io.Writer, name string, in []byte) error {
	zw := zip.NewWriter(w)
	member, err := zipCreate(zw, name)
	if err != nil {
		_ = zipClose(zw)
		return err
	}
	if _, err := member.Write(in); err != nil {
		_ = zipClose(zw)
		return err
	}
	return zipClose(zw)
}

// zipDecompress extracts the single zipEntryName member and checks its
// declared size against expected before reading.
func zipDecompress(zipBytes []byte, expected uint64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip must contain exactly one member", ErrInvalidPayload)
	}
	zf := zr.File[0]
	if zf.Name != zipEntryName {
		return nil, fmt.Errorf("%w: zip member must be named %s", ErrInvalidPayload, zipEntryName)
	}
	if zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("%w: zip member must be a file", ErrInvalidPayload)
	}
	if zf.UncompressedSize64 != expected {
		return nil, fmt.Errorf("%w: zip uncompressed size %d != expected %d", ErrInvalidPayload, zf.UncompressedSize64, expected)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readAll(io.LimitReader(rc, int64(expected)))
}

func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

func zstdDecompress(in []byte, expected uint64) ([]byte, error) {
	dec, err := newZstdReader()
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if uint64(len(out)) > expected {
		return nil, fmt.Errorf("%w: zstd expanded beyond expected size", ErrInvalidPayload)
	}
	return out, nil
}

func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lz4CompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4CompressTo(w io.Writer, in []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return err
	}
	return lz4Close(zw)
}

func lz4Decompress(in []byte, expected uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := io.ReadAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("%w: lz4 expanded beyond expected size", ErrInvalidPayload)
	}
	return b, nil
}

func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := brotliCompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliCompressTo(w io.Writer, in []byte) error {
	bw := brotli.NewWriter(w)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return err
	}
	return brotliClose(bw)
}

func brotliDecompress(in []byte, expected uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("%w: brotli expanded beyond expected size", ErrInvalidPayload)
	}
	return b, nil
}
