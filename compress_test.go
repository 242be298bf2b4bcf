package wbundle

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestCompressEntryRoundTrip_AllCodecs(t *testing.T) {
	inputs := [][]byte{
		[]byte("hello world"),
		bytes.Repeat([]byte("abcdefgh"), 4096),
		allBytes(),
	}
	for _, comp := range []Compression{CompNone, CompZIP, CompZSTD, CompLZ4, CompBR} {
		t.Run(comp.String(), func(t *testing.T) {
			for _, in := range inputs {
				env, err := compressEntry(comp, in)
				if err != nil {
					t.Fatalf("compress: %v", err)
				}
				out, err := decompressEntry(comp, env, 1<<20)
				if err != nil {
					t.Fatalf("decompress: %v", err)
				}
				if !bytes.Equal(in, out) {
					t.Fatalf("round trip mismatch for %d bytes", len(in))
				}
			}
		})
	}
}

func TestZIPDecompressErrors(t *testing.T) {
	// Multi-member
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		_, _ = zw.Create(zipEntryName)
		_, _ = zw.Create("extra")
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 0)
		if err == nil {
			t.Fatal("expected error")
		}
	}
	// Wrong name
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("nope")
		_, _ = w.Write([]byte("abc"))
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 3)
		if err == nil {
			t.Fatal("expected error")
		}
	}
	// Size mismatch
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create(zipEntryName)
		_, _ = w.Write([]byte("abcd"))
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 3)
		if err == nil {
			t.Fatal("expected error")
		}
	}
	// Member is a directory
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		h := &zip.FileHeader{Name: zipEntryName}
		h.SetMode(fs.ModeDir | 0o755)
		_, _ = zw.CreateHeader(h)
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 0)
		if err == nil {
			t.Fatal("expected error")
		}
	}
	// Not an archive
	if _, err := zipDecompress([]byte("not a zip"), 1); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDecompressionExpansionGuards(t *testing.T) {
	in := []byte("hello world")

	zst, err := zstdCompress(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zstdDecompress(zst, 1); err == nil {
		t.Fatal("expected error")
	}

	lz, err := lz4Compress(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lz4Decompress(lz, 1); err == nil {
		t.Fatal("expected error")
	}

	br, err := brotliCompress(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := brotliDecompress(br, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecompressionCorruptStreams(t *testing.T) {
	if _, err := zstdDecompress([]byte("notzstd"), 100); err == nil {
		t.Fatal("expected error")
	}
	if _, err := lz4Decompress([]byte("notlz4"), 100); err == nil {
		t.Fatal("expected error")
	}
	if _, err := brotliDecompress([]byte("notbr"), 100); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecompressEntryLengthMismatch(t *testing.T) {
	compressed, err := zstdCompress([]byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	payload := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint64(payload[:8], 10)
	copy(payload[8:], compressed)
	if _, err := decompressEntry(CompZSTD, payload, 100); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDecompressEntryBadEnvelope(t *testing.T) {
	if _, err := decompressEntry(CompZSTD, []byte{1, 2, 3}, 10); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, 1000)
	if _, err := decompressEntry(CompZSTD, payload, 10); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if _, err := decompressEntry(Compression(99), make([]byte, 8), 100); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if _, err := compressEntry(Compression(99), []byte("x")); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestCompressHelpers_ErrorPaths(t *testing.T) {
	// zip Create error via injection
	origCreate := zipCreate
	zipCreate = func(_ *zip.Writer, _ string) (io.Writer, error) { return nil, io.ErrClosedPipe }
	if err := zipCompressNamed(io.Discard, zipEntryName, []byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip member Write error
	zipCreate = func(_ *zip.Writer, _ string) (io.Writer, error) { return errWriter{}, nil }
	if err := zipCompressNamed(io.Discard, zipEntryName, []byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip Close error via injection
	origClose := zipClose
	zipClose = func(_ *zip.Writer) error { return io.ErrClosedPipe }
	if err := zipCompressNamed(io.Discard, zipEntryName, []byte("x")); err == nil {
		zipClose = origClose
		t.Fatal("expected error")
	}
	zipClose = origClose

	if err := zipCompressNamed(errWriter{}, zipEntryName, []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	if err := lz4CompressTo(errWriter{}, []byte("x")); err == nil {
		t.Fatal("expected error")
	}

	origLZ4Close := lz4Close
	lz4Close = func(_ *lz4.Writer) error { return io.ErrClosedPipe }
	if _, err := lz4Compress([]byte("x")); err == nil {
		lz4Close = origLZ4Close
		t.Fatal("expected error")
	}
	lz4Close = origLZ4Close

	origBrotliWrite := brotliWrite
	brotliWrite = func(_ *brotli.Writer, _ []byte) (int, error) { return 0, io.ErrClosedPipe }
	if err := brotliCompressTo(io.Discard, []byte("x")); err == nil {
		brotliWrite = origBrotliWrite
		t.Fatal("expected error")
	}
	brotliWrite = origBrotliWrite

	origBrotliClose := brotliClose
	brotliClose = func(_ *brotli.Writer) error { return io.ErrClosedPipe }
	if _, err := brotliCompress([]byte("x")); err == nil {
		brotliClose = origBrotliClose
		t.Fatal("expected error")
	}
	brotliClose = origBrotliClose
}

func TestZstdConstructorInjection(t *testing.T) {
	origW := newZstdWriter
	origR := newZstdReader
	defer func() {
		newZstdWriter = origW
		newZstdReader = origR
	}()

	newZstdWriter = func() (*zstd.Encoder, error) { return nil, io.ErrClosedPipe }
	if _, err := compressEntry(CompZSTD, []byte("x")); err == nil {
		t.Fatal("expected error")
	}

	newZstdWriter = origW
	newZstdReader = func() (*zstd.Decoder, error) { return nil, io.ErrClosedPipe }
	if _, err := zstdDecompress([]byte("x"), 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestZIPDecompress_InjectionErrorPaths(t *testing.T) {
	z, err := zipCompress([]byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	origOpen := zipOpen
	zipOpen = func(_ *zip.File) (io.ReadCloser, error) { return nil, io.ErrClosedPipe }
	if _, err := zipDecompress(z, 3); err == nil {
		zipOpen = origOpen
		t.Fatal("expected error")
	}
	zipOpen = origOpen

	origReadAll := readAll
	readAll = func(io.Reader) ([]byte, error) { return nil, io.ErrClosedPipe }
	if _, err := zipDecompress(z, 3); err == nil {
		readAll = origReadAll
		t.Fatal("expected error")
	}
	if _, err := brotliDecompress([]byte("anything"), 10); err == nil {
		readAll = origReadAll
		t.Fatal("expected error")
	}
	readAll = origReadAll
}
