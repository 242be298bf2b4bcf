package wbundle

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/tiff"
)

// Function variables for testing injection.
var (
	encodePNG = func(w io.Writer, img image.Image, level png.CompressionLevel) error {
		enc := png.Encoder{CompressionLevel: level}
		return enc.Encode(w, img)
	}
	encodeTIFF = func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
)

// canvasImage lays raw over a width x height canvas, three bytes per pixel in
// R, G, B order. Channels past the end of raw are padByte and alpha is always
// opaque: premultiplying decoders would otherwise rewrite the color bytes.
func canvasImage(raw []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	k := 0
	for p := 0; p+3 < len(pix); p += 4 {
		for c := 0; c < Channels; c++ {
			if k < len(raw) {
				pix[p+c] = raw[k]
				k++
			} else {
				pix[p+c] = padByte
			}
		}
		pix[p+3] = 0xff
	}
	return img
}

func writeCanvas(w io.Writer, img image.Image, cfg config) error {
	switch cfg.format {
	case FormatPNG:
		return encodePNG(w, img, cfg.pngLevel)
	case FormatTIFF:
		return encodeTIFF(w, img)
	default:
		return fmt.Errorf("%w: unsupported format %v", ErrCodec, cfg.format)
	}
}

// readCanvas decodes an image container and returns its RGB bytes with the
// alpha channel dropped. The container format is detected from its magic.
func readCanvas(data []byte, limits Limits) ([]byte, error) {
	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if imgCfg.Width > limits.MaxDimension || imgCfg.Height > limits.MaxDimension {
		return nil, fmt.Errorf("%w: %s canvas %dx%d exceeds %d", ErrLimitExceeded, format, imgCfg.Width, imgCfg.Height, limits.MaxDimension)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return pixelsRGB(img), nil
}

// pixelsRGB flattens img row-major into R, G, B bytes.
func pixelsRGB(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*Channels)
	switch m := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := m.PixOffset(b.Min.X, y)
			out = stripAlpha(out, m.Pix[off:off+b.Dx()*4])
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := m.PixOffset(b.Min.X, y)
			out = stripAlpha(out, m.Pix[off:off+b.Dx()*4])
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out = append(out, c.R, c.G, c.B)
			}
		}
	}
	return out
}

// stripAlpha appends every byte of rgba except each fourth one.
func stripAlpha(dst, rgba []byte) []byte {
	for i := 0; i+3 < len(rgba); i += 4 {
		dst = append(dst, rgba[i], rgba[i+1], rgba[i+2])
	}
	return dst
}
