package wbundle

import (
	"fmt"
	"math"
)

// Dimensions returns the canvas size for totalBytes spread over channels
// bytes per pixel. Width is the smallest w in [1, maxDimension] with
// w*w >= pixels; height is the smallest h >= 1 with width*h >= pixels.
// Either exceeding maxDimension fails with ErrCapacityExceeded.
func Dimensions(totalBytes, channels, maxDimension int) (width, height int, err error) {
	if totalBytes < 0 {
		return 0, 0, fmt.Errorf("wbundle: negative byte count %d", totalBytes)
	}
	if channels <= 0 {
		channels = Channels
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	pixels := ceilDiv(totalBytes, channels)

	// The float estimate only seeds the search; the loop below settles the
	// exact minimum so perfect squares never round the wrong way.
	width = int(math.Sqrt(float64(pixels))) - 1
	if width < 1 {
		width = 1
	}
	for width*width < pixels {
		width++
	}
	if width > maxDimension {
		return 0, 0, fmt.Errorf("%w: %d bytes need width %d, max %d", ErrCapacityExceeded, totalBytes, width, maxDimension)
	}

	height = ceilDiv(pixels, width)
	if height < 1 {
		height = 1
	}
	if height > maxDimension {
		return 0, 0, fmt.Errorf("%w: %d bytes need height %d, max %d", ErrCapacityExceeded, totalBytes, height, maxDimension)
	}
	return width, height, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
