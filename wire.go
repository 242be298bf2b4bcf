package wbundle

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// FormatHeader renders records as header text: "name,type,length;" per
// record, the last one included. The sentinel is not part of the text.
func FormatHeader(records []HeaderRecord) string {
	return string(appendHeader(nil, records))
}

func appendHeader(dst []byte, records []HeaderRecord) []byte {
	for _, r := range records {
		dst = append(dst, r.Name...)
		dst = append(dst, headerFieldSep)
		dst = append(dst, r.Type...)
		dst = append(dst, headerFieldSep)
		dst = strconv.AppendInt(dst, int64(r.Length), 10)
		dst = append(dst, headerRecordSep)
	}
	return dst
}

// ParseHeader reads the header at the start of raw. It returns the records
// in header order and the offset of the first payload byte, which is one
// past the sentinel.
func ParseHeader(raw []byte) ([]HeaderRecord, int, error) {
	return parseHeader(raw, defaultLimits())
}

func parseHeader(raw []byte, limits Limits) ([]HeaderRecord, int, error) {
	end := -1
	for i, c := range raw {
		if c < sentinelCeiling {
			end = i
			break
		}
		if i >= limits.MaxHeaderLen {
			return nil, 0, fmt.Errorf("%w: header longer than %d bytes", ErrLimitExceeded, limits.MaxHeaderLen)
		}
	}
	if end < 0 {
		return nil, 0, fmt.Errorf("%w: no sentinel in %d bytes", ErrMalformedHeader, len(raw))
	}

	text := raw[:end]
	if bytes.IndexByte(text, headerSoftWrap) >= 0 {
		text = bytes.ReplaceAll(text, []byte{headerSoftWrap}, nil)
	}

	var records []HeaderRecord
	for _, seg := range strings.Split(string(text), string(headerRecordSep)) {
		if seg == "" {
			continue
		}
		fields := strings.Split(seg, string(headerFieldSep))
		if len(fields) != 3 {
			return nil, 0, fmt.Errorf("%w: segment %q has %d fields", ErrMalformedHeader, seg, len(fields))
		}
		n, err := strconv.ParseUint(fields[2], 10, strconv.IntSize-1)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: segment %q length: %v", ErrMalformedHeader, seg, err)
		}
		if len(records) >= limits.MaxEntries {
			return nil, 0, fmt.Errorf("%w: more than %d entries", ErrLimitExceeded, limits.MaxEntries)
		}
		records = append(records, HeaderRecord{Name: fields[0], Type: fields[1], Length: int(n)})
	}
	return records, end + 1, nil
}

// Spans assigns each record a contiguous byte range starting at start.
// It fails with ErrTruncatedPayload if a range would run past bufLen.
func Spans(records []HeaderRecord, start, bufLen int) ([]Span, error) {
	if start > bufLen {
		return nil, fmt.Errorf("%w: payload starts at %d past buffer end %d", ErrTruncatedPayload, start, bufLen)
	}
	spans := make([]Span, len(records))
	for i, r := range records {
		if r.Length < 0 || r.Length > bufLen-start {
			return nil, fmt.Errorf("%w: entry %q needs %d bytes at offset %d, buffer has %d", ErrTruncatedPayload, r.Name, r.Length, start, bufLen)
		}
		spans[i] = Span{Start: start, End: start + r.Length}
		start += r.Length
	}
	return spans, nil
}
