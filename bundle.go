package wbundle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// Bundle is an ordered table of entries plus an optional cipher key.
//
// A Bundle is a plain value owned by its creator; it is not safe for
// concurrent mutation. Entries keep the position of their first insertion,
// and adding an existing name replaces its payload.
type Bundle struct {
	cfg     config
	order   []string
	entries map[string]Entry
}

// New returns an empty Bundle.
func New(opts ...Option) *Bundle {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	return &Bundle{cfg: cfg, entries: make(map[string]Entry)}
}

// Keyed reports whether the bundle applies a cipher key.
func (b *Bundle) Keyed() bool { return len(b.cfg.key) > 0 }

// Add stores data under name. The payload is copied. The type tag defaults
// to the extension of name; WithCompression stores it compressed and
// records the codec on the tag.
func (b *Bundle) Add(name string, data []byte, opts ...EntryOption) error {
	var ec entryConfig
	for _, opt := range opts {
		opt(&ec)
	}
	if err := validateName(name); err != nil {
		return err
	}
	typ := ec.typ
	if !ec.typSet {
		typ = extType(name)
	}
	if err := validateType(typ); err != nil {
		return err
	}

	payload := append([]byte(nil), data...)
	if ec.compression != CompNone {
		var err error
		if payload, err = compressEntry(ec.compression, payload); err != nil {
			return err
		}
		typ = joinType(typ, ec.compression)
	}
	b.put(Entry{Name: name, Type: typ, Data: payload})
	return nil
}

// AddFile reads the file at path and adds it. The entry is named after path
// with forward slashes unless WithName overrides it.
func (b *Bundle) AddFile(ctx context.Context, path string, opts ...EntryOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	var ec entryConfig
	for _, opt := range opts {
		opt(&ec)
	}
	name := ec.name
	if name == "" {
		name = filepath.ToSlash(path)
	}
	return b.Add(name, data, opts...)
}

func (b *Bundle) put(e Entry) {
	if _, ok := b.entries[e.Name]; !ok {
		b.order = append(b.order, e.Name)
	}
	b.entries[e.Name] = e
}

// Has reports whether name is in the bundle.
func (b *Bundle) Has(name string) bool {
	_, ok := b.entries[name]
	return ok
}

// Len returns the number of entries.
func (b *Bundle) Len() int { return len(b.order) }

// Names returns entry names in table order.
func (b *Bundle) Names() []string {
	return append([]string(nil), b.order...)
}

// Entries returns the entries in table order. The Data slices are shared
// with the bundle and must not be modified.
func (b *Bundle) Entries() []Entry {
	out := make([]Entry, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.entries[name])
	}
	return out
}

// Entry returns the stored entry for name.
func (b *Bundle) Entry(name string) (Entry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

// ReadRaw returns the payload exactly as stored, compression envelope
// included.
func (b *Bundle) ReadRaw(name string) ([]byte, error) {
	e, ok := b.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e.Data, nil
}

// Read returns the content of name. With WithEntryCodecs, entries stored
// compressed are expanded; otherwise the stored bytes are returned.
func (b *Bundle) Read(name string) ([]byte, error) {
	e, ok := b.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if !b.cfg.entryCodecs {
		return e.Data, nil
	}
	data, err := decompressEntry(e.Compression(), e.Data, b.cfg.limits.MaxEntryUncompressed)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", name, err)
	}
	return data, nil
}

// ReadString returns the content of name as text.
func (b *Bundle) ReadString(name string) (string, error) {
	data, err := b.Read(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON decodes the content of name into v. Comments and trailing commas
// are tolerated. Empty content decodes as an empty object.
func (b *Bundle) ReadJSON(name string, v any) error {
	data, err := b.Read(name)
	if err != nil {
		return err
	}
	data = jsonc.ToJSON(data)
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("entry %q: %w", name, err)
	}
	return nil
}

// ReadDataURI returns the content of name as a base64 data URI. If mimeType
// is empty it is derived from the entry type, falling back to
// application/octet-stream.
func (b *Bundle) ReadDataURI(name, mimeType string) (string, error) {
	e, ok := b.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	data, err := b.Read(name)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		typ := e.Type
		if b.cfg.entryCodecs {
			typ = e.BaseType()
		}
		mimeType = typeMIME(typ)
	}
	return "data:" + uriMediaType(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseDataURI reverses ReadDataURI.
func ParseDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("wbundle: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("wbundle: data URI has no payload separator")
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("wbundle: data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("wbundle: data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// extType returns the extension of the last path element of name, without
// the dot. Both slash and backslash separate elements.
func extType(name string) string {
	base := name[strings.LastIndexAny(name, `/\`)+1:]
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return base[i+1:]
}

func typeMIME(t string) string {
	if t != "" {
		if m := mime.TypeByExtension("." + strings.ToLower(t)); m != "" {
			return m
		}
	}
	return "application/octet-stream"
}

// uriMediaType renders a media type without whitespace, as data URIs
// require: "text/plain; charset=utf-8" becomes "text/plain;charset=utf-8".
func uriMediaType(m string) string {
	mt, params, err := mime.ParseMediaType(m)
	if err != nil {
		return strings.Join(strings.Fields(m), "")
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(mt)
	for _, k := range keys {
		sb.WriteString(";" + k + "=" + params[k])
	}
	return sb.String()
}
