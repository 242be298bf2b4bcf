package wbundle

import (
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	// DefaultMaxDimension is the default ceiling for canvas width and height.
	DefaultMaxDimension = 16384

	// Channels is the number of data-carrying channels per pixel (R, G, B).
	Channels = 3

	// Sentinel is the byte written after the header text.
	Sentinel byte = 0

	// sentinelCeiling is the exclusive upper bound of byte values that end the header.
	sentinelCeiling byte = 5

	// padByte fills unused channels after the raw buffer is exhausted.
	padByte byte = 255

	// headerRecordSep separates entries in the header; headerFieldSep separates fields.
	headerRecordSep = ';'
	headerFieldSep  = ','
	headerSoftWrap  = '\n'
)

// CipherScope selects the byte range covered by the XOR key.
type CipherScope uint8

const (
	// ScopeBuffer ciphers the whole raw buffer, header and sentinel included.
	ScopeBuffer CipherScope = iota
	// ScopePayload ciphers only the bytes after the sentinel. The header stays
	// readable and the key position restarts at the first payload byte.
	ScopePayload
)

func (s CipherScope) String() string {
	switch s {
	case ScopeBuffer:
		return "buffer"
	case ScopePayload:
		return "payload"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// ParseCipherScope parses "buffer" or "payload".
func ParseCipherScope(s string) (CipherScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buffer":
		return ScopeBuffer, nil
	case "payload":
		return ScopePayload, nil
	default:
		return 0, fmt.Errorf("unknown cipher scope %q", s)
	}
}

// Format is the raster container used to store the canvas.
type Format uint8

const (
	FormatPNG Format = iota
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat parses "png" or "tiff".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

// Compression is the codec applied to a single entry payload.
type Compression uint8

const (
	CompNone Compression = iota
	CompZIP
	CompZSTD
	CompLZ4
	CompBR
)

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZIP:
		return "zip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "br"
	default:
		return "unknown"
	}
}

// ParseCompression parses a codec name as printed by [Compression.String].
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompNone, nil
	case "zip":
		return CompZIP, nil
	case "zstd":
		return CompZSTD, nil
	case "lz4":
		return CompLZ4, nil
	case "br", "brotli":
		return CompBR, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// Entry is one named payload of a bundle.
//
// Data holds the bytes exactly as stored in the container. For compressed
// entries that is the compression envelope; use [Bundle.Read] for the content.
type Entry struct {
	Name string
	Type string
	Data []byte
}

// Len returns the stored payload length as written in the header.
func (e Entry) Len() int { return len(e.Data) }

// Compression reports the codec recorded in the type tag suffix.
func (e Entry) Compression() Compression {
	_, comp := splitType(e.Type)
	return comp
}

// BaseType returns the type tag without any compression suffix.
func (e Entry) BaseType() string {
	base, _ := splitType(e.Type)
	return base
}

// Digest returns the BLAKE3-256 digest of the stored payload.
func (e Entry) Digest() [32]byte {
	return blake3.Sum256(e.Data)
}

func (e Entry) record() HeaderRecord {
	return HeaderRecord{Name: e.Name, Type: e.Type, Length: len(e.Data)}
}

// splitType separates a "+codec" suffix from a type tag. Unknown suffixes are
// left in place and reported as CompNone.
func splitType(t string) (string, Compression) {
	i := strings.LastIndexByte(t, '+')
	if i < 0 {
		return t, CompNone
	}
	comp, err := ParseCompression(t[i+1:])
	if err != nil || comp == CompNone || t[i+1:] == "" {
		return t, CompNone
	}
	return t[:i], comp
}

func joinType(base string, comp Compression) string {
	if comp == CompNone {
		return base
	}
	return base + "+" + comp.String()
}

// HeaderRecord is one parsed header triple.
type HeaderRecord struct {
	Name   string
	Type   string
	Length int
}

// Span is a half-open byte range [Start, End) into the raw buffer.
type Span struct {
	Start int
	End   int
}

// WriteStats describes an encoded bundle.
type WriteStats struct {
	Entries  int
	Width    int
	Height   int
	RawSize  int   // header + sentinel + payloads
	Capacity int   // Width * Height * Channels
	Size     int64 // bytes of the compressed image
}

// Ratio returns the fraction saved by image compression relative to RawSize,
// clamped at zero.
func (s WriteStats) Ratio() float64 {
	if s.RawSize == 0 {
		return 0
	}
	r := 1 - float64(s.Size)/float64(s.RawSize)
	if r < 0 {
		return 0
	}
	return r
}
