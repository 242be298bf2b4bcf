// Package main provides C-compatible exports for the wbundle library.
// Build with: go build -buildmode=c-shared -o wbundle.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} WbResult;

// Entry for creating bundles
typedef struct {
    char* name;
    char* type;
    char* data;
    int   data_len;
} CWbEntry;
*/
import "C"

import (
	"bytes"
	"encoding/json"
	"errors"
	"unsafe"

	wbundle "github.com/logicossoftware/go-wbundle"
)

func main() {}

// WbMaxDimension returns the default maximum canvas width and height.
//
//export WbMaxDimension
func WbMaxDimension() C.int {
	return C.int(wbundle.DefaultMaxDimension)
}

// WbFreeResult frees memory allocated by other Wb functions.
// Must be called to avoid memory leaks.
//
//export WbFreeResult
func WbFreeResult(result C.WbResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// WbFreeString frees a C string allocated by Go.
//
//export WbFreeString
func WbFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func makeResult(data []byte) C.WbResult {
	var result C.WbResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

func makeError(err error) C.WbResult {
	var result C.WbResult
	result.error = C.CString(err.Error())
	return result
}

// options builds the cipher options. key may be NULL; scope is 0 for the
// whole buffer and 1 for the payload only.
func options(key *C.char, scope C.int) []wbundle.Option {
	var opts []wbundle.Option
	if key != nil {
		opts = append(opts, wbundle.WithKeyString(C.GoString(key)))
	}
	return append(opts, wbundle.WithCipherScope(wbundle.CipherScope(scope)), wbundle.WithEntryCodecs())
}

func decode(data *C.char, dataLen C.int, key *C.char, scope C.int) (*wbundle.Bundle, error) {
	if data == nil || dataLen < 0 {
		return nil, errors.New("wbundle: no data")
	}
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	return wbundle.Decode(bytes.NewReader(goData), options(key, scope)...)
}

// WbEncode packs entries into a PNG bundle.
// Parameters:
//   - entries: array of CWbEntry structs; a NULL type derives it from the name
//   - count: number of entries
//   - key: optional XOR key (can be NULL)
//   - scope: 0 = whole buffer, 1 = payload only
//   - compression: per-entry codec (0=None, 1=ZIP, 2=ZSTD, 3=LZ4, 4=Brotli)
//
// Returns WbResult with the PNG bytes or error. Call WbFreeResult when done.
//
//export WbEncode
func WbEncode(entries *C.CWbEntry, count C.int, key *C.char, scope C.int, compression C.int) C.WbResult {
	b := wbundle.New(options(key, scope)...)
	if count > 0 && entries != nil {
		for _, e := range unsafe.Slice(entries, int(count)) {
			opts := []wbundle.EntryOption{wbundle.WithCompression(wbundle.Compression(compression))}
			if e._type != nil {
				opts = append(opts, wbundle.WithType(C.GoString(e._type)))
			}
			data := C.GoBytes(unsafe.Pointer(e.data), e.data_len)
			if err := b.Add(C.GoString(e.name), data, opts...); err != nil {
				return makeError(err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := b.Encode(&buf); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// WbList decodes a bundle and returns a JSON array of
// {"name", "type", "length"} objects in table order.
// Call WbFreeResult when done.
//
//export WbList
func WbList(data *C.char, dataLen C.int, key *C.char, scope C.int) C.WbResult {
	b, err := decode(data, dataLen, key, scope)
	if err != nil {
		return makeError(err)
	}
	type listed struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Length int    `json:"length"`
	}
	out := make([]listed, 0, b.Len())
	for _, e := range b.Entries() {
		out = append(out, listed{Name: e.Name, Type: e.Type, Length: e.Len()})
	}
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

// WbRead decodes a bundle and returns the content of one entry,
// decompressed if it was stored compressed.
// Call WbFreeResult when done.
//
//export WbRead
func WbRead(data *C.char, dataLen C.int, key *C.char, scope C.int, name *C.char) C.WbResult {
	b, err := decode(data, dataLen, key, scope)
	if err != nil {
		return makeError(err)
	}
	content, err := b.Read(C.GoString(name))
	if err != nil {
		return makeError(err)
	}
	return makeResult(content)
}

// WbReadDataURI is WbRead returning a base64 data URI. mimeType may be NULL.
//
//export WbReadDataURI
func WbReadDataURI(data *C.char, dataLen C.int, key *C.char, scope C.int, name *C.char, mimeType *C.char) C.WbResult {
	b, err := decode(data, dataLen, key, scope)
	if err != nil {
		return makeError(err)
	}
	var mt string
	if mimeType != nil {
		mt = C.GoString(mimeType)
	}
	uri, err := b.ReadDataURI(C.GoString(name), mt)
	if err != nil {
		return makeError(err)
	}
	return makeResult([]byte(uri))
}

// WbValidate decodes a bundle and discards it.
// Returns NULL on success, or an error message string on failure.
// Call WbFreeString on the result if non-NULL.
//
//export WbValidate
func WbValidate(data *C.char, dataLen C.int, key *C.char, scope C.int) *C.char {
	if _, err := decode(data, dataLen, key, scope); err != nil {
		return C.CString(err.Error())
	}
	return nil
}

// WbCount returns the number of entries in a bundle, or -1 on error.
//
//export WbCount
func WbCount(data *C.char, dataLen C.int, key *C.char, scope C.int) C.int {
	b, err := decode(data, dataLen, key, scope)
	if err != nil {
		return -1
	}
	return C.int(b.Len())
}
