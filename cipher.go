package wbundle

// ApplyXOR obfuscates buf in place with key repeated from its first byte:
// buf[i] ^= key[i % len(key)]. Applying it twice restores buf. An empty key
// leaves buf untouched.
//
// This is a reversible stream transform, not encryption. It provides no
// confidentiality against anyone who cares to look and no integrity.
func ApplyXOR(buf, key []byte) {
	xorFrom(buf, key, 0)
}

// xorFrom ciphers buf starting at key position pos and returns the position
// following the last byte, so a range may be processed in pieces.
func xorFrom(buf, key []byte, pos int) int {
	if len(key) == 0 {
		return pos
	}
	pos %= len(key)
	for i := range buf {
		buf[i] ^= key[pos]
		pos++
		if pos == len(key) {
			pos = 0
		}
	}
	return pos
}

// cipherRaw applies the configured scope to a raw buffer whose payload begins
// at payloadStart.
func cipherRaw(raw []byte, payloadStart int, key []byte, scope CipherScope) {
	if len(key) == 0 {
		return
	}
	switch scope {
	case ScopePayload:
		if payloadStart < len(raw) {
			xorFrom(raw[payloadStart:], key, 0)
		}
	default:
		xorFrom(raw, key, 0)
	}
}
