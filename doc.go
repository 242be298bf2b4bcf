// Package wbundle implements the web bundle container format.
//
// A web bundle packs an ordered set of named byte payloads into a single
// losslessly compressed raster image (PNG by default) so that heterogeneous
// assets can be shipped as one ordinary image file and unpacked byte-exact.
//
// # Format Overview
//
// The raw buffer carried by the image is:
//   - A textual header of the form "name,type,length;" repeated once per entry
//   - A single sentinel byte (0); decoders stop at the first byte below 5
//   - The entry payloads, concatenated in header order
//
// The raw buffer is laid out over the RGB channels of a near-square canvas,
// three bytes per pixel, row-major. Unused channels are padded with 255 and
// alpha, when the pixel format has it, is always fully opaque.
//
// An optional key applies a repeating-key XOR to the buffer. This is
// obfuscation only: it offers no confidentiality against an attacker and no
// integrity protection. See [CipherScope] for the byte range it covers.
//
// # Basic Usage
//
// To create and write a bundle:
//
//	b := wbundle.New(wbundle.WithKeyString("keyboardcat"))
//	_ = b.Add("data.json", []byte(`{"a":1}`))
//	_ = b.Add("logo.png", logo, wbundle.WithType("png"))
//	stats, err := b.WriteFile(ctx, "data.wb.png")
//
// To read a bundle:
//
//	b, err := wbundle.Open(ctx, "data.wb.png", wbundle.WithKeyString("keyboardcat"))
//	data, err := b.Read("data.json")
//
// # Entry Compression
//
// Entries may be stored compressed with ZIP, Zstandard, LZ4 or Brotli (see
// [WithCompression]). The codec is recorded as a "+codec" suffix on the type
// tag, so bundles stay readable by decoders that only know the base format.
// Type tags are advisory, so expansion is opt-in: only a Bundle opened with
// [WithEntryCodecs] expands such entries in [Bundle.Read].
//
// # Limits
//
// Decoding enforces configurable [Limits] on canvas size, header length,
// entry count and decompressed entry size.
package wbundle
