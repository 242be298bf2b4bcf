package wbundle

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"
)

func TestPixelsRGB_Models(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(rgba.Pix, []byte{1, 2, 3, 255, 4, 5, 6, 255})
	if got, want := pixelsRGB(rgba), []byte{1, 2, 3, 4, 5, 6}; !bytes.Equal(got, want) {
		t.Fatalf("rgba: got %v, want %v", got, want)
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[0], gray.Pix[1] = 7, 200
	if got, want := pixelsRGB(gray), []byte{7, 7, 7, 200, 200, 200}; !bytes.Equal(got, want) {
		t.Fatalf("gray: got %v, want %v", got, want)
	}

	pal := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.NRGBA{9, 8, 7, 255}})
	if got, want := pixelsRGB(pal), []byte{9, 8, 7}; !bytes.Equal(got, want) {
		t.Fatalf("paletted: got %v, want %v", got, want)
	}
}

func TestPixelsRGB_SubImage(t *testing.T) {
	img := canvasImage([]byte("abcdefghijkl"), 2, 2)
	sub := img.SubImage(image.Rect(1, 0, 2, 2))
	if got := pixelsRGB(sub); string(got) != "defjkl" {
		t.Fatalf("got %q", got)
	}
}

func TestCanvasImage_OpaqueAndPadded(t *testing.T) {
	img := canvasImage(nil, 2, 2)
	for i, v := range img.Pix {
		if v != 255 {
			t.Fatalf("byte %d is %d, want 255", i, v)
		}
	}

	img = canvasImage([]byte{0, 0, 0, 0, 0, 0}, 2, 1)
	if want := []byte{0, 0, 0, 255, 0, 0, 0, 255}; !bytes.Equal(img.Pix, want) {
		t.Fatalf("got %v, want %v", img.Pix, want)
	}
}

func TestReadCanvas_Formats(t *testing.T) {
	raw := append([]byte("x,bin,3;\x00"), 0, 1, 2)
	img := canvasImage(raw, 2, 2)

	for _, f := range []Format{FormatPNG, FormatTIFF} {
		t.Run(f.String(), func(t *testing.T) {
			cfg := defaultConfig()
			cfg.format = f
			var buf bytes.Buffer
			if err := writeCanvas(&buf, img, cfg); err != nil {
				t.Fatal(err)
			}
			got, err := readCanvas(buf.Bytes(), defaultLimits())
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(raw, got) {
				t.Fatalf("got %q, want %q", got, raw)
			}
		})
	}
}

func TestReadCanvas_Errors(t *testing.T) {
	if _, err := readCanvas(nil, defaultLimits()); !errors.Is(err, ErrCodec) {
		t.Fatalf("empty input: got %v", err)
	}
	if _, err := readCanvas([]byte("GIF89a but not really"), defaultLimits()); !errors.Is(err, ErrCodec) {
		t.Fatalf("bogus gif: got %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvasImage(allBytes(), 10, 10)); err != nil {
		t.Fatal(err)
	}
	full := buf.Bytes()

	// The IHDR chunk survives, the pixel data does not.
	if _, err := readCanvas(full[:40], defaultLimits()); !errors.Is(err, ErrCodec) {
		t.Fatalf("cut png: got %v", err)
	}

	if _, err := readCanvas(full, Limits{MaxDimension: 9}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("dimension cap: got %v", err)
	}
}

func TestDecode_ExternallyEncodedRGBA(t *testing.T) {
	// Producers other than this package typically write straight RGBA with a
	// fully opaque alpha channel.
	raw := []byte("note.txt,txt,2;\x00hi")
	w, h, err := Dimensions(len(raw), Channels, 0)
	if err != nil {
		t.Fatal(err)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	src := canvasImage(raw, w, h)
	copy(rgba.Pix, src.Pix)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		t.Fatal(err)
	}
	b, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	s, err := b.ReadString("note.txt")
	if err != nil {
		t.Fatal(err)
	}
	if s != "hi" {
		t.Fatalf("got %q", s)
	}
}

func TestDecode_PayloadScopeWrongKeyKeepsHeader(t *testing.T) {
	in := New(WithKeyString("right"), WithCipherScope(ScopePayload))
	if err := in.Add("a.txt", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := in.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	out, err := Decode(&buf, WithKeyString("wrong"), WithCipherScope(ScopePayload))
	if err != nil {
		t.Fatal(err)
	}
	if names := out.Names(); !reflect.DeepEqual(names, []string{"a.txt"}) {
		t.Fatalf("names: %v", names)
	}
	data, err := out.Read("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "payload" {
		t.Fatal("wrong key recovered the payload")
	}
}
