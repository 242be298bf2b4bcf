package wbundle

import (
	"errors"
	"testing"
)

func TestDimensions_Known(t *testing.T) {
	cases := []struct {
		total, w, h int
	}{
		{0, 1, 1},
		{1, 1, 1},
		{3, 1, 1},
		{4, 2, 1},
		{12, 2, 2},
		{13, 3, 2},
		{27, 3, 3},
		{28, 4, 3},
		{300, 10, 10},
		{301, 11, 10},
		{3 * 10000, 100, 100},
		{3*10000 + 1, 101, 100},
	}
	for _, tc := range cases {
		w, h, err := Dimensions(tc.total, Channels, DefaultMaxDimension)
		if err != nil {
			t.Fatalf("total=%d: %v", tc.total, err)
		}
		if w != tc.w || h != tc.h {
			t.Errorf("total=%d: got %dx%d, want %dx%d", tc.total, w, h, tc.w, tc.h)
		}
	}
}

func TestDimensions_MinimalAndSufficient(t *testing.T) {
	for total := 0; total <= 20000; total += 7 {
		w, h, err := Dimensions(total, Channels, DefaultMaxDimension)
		if err != nil {
			t.Fatalf("total=%d: %v", total, err)
		}
		pixels := ceilDiv(total, Channels)

		if w*h*Channels < total {
			t.Fatalf("total=%d: %dx%d cannot hold it", total, w, h)
		}
		if w*w < pixels {
			t.Fatalf("total=%d: width %d squared below %d pixels", total, w, pixels)
		}
		if w > 1 && (w-1)*(w-1) >= pixels {
			t.Fatalf("total=%d: width %d not minimal", total, w)
		}
		if h > 1 && w*(h-1) >= pixels {
			t.Fatalf("total=%d: height %d not minimal", total, h)
		}
		if h > w {
			t.Fatalf("total=%d: height %d exceeds width %d", total, h, w)
		}
	}
}

func TestDimensions_PerfectSquares(t *testing.T) {
	for _, side := range []int{1, 2, 255, 256, 4095, 4096, 16383, 16384} {
		w, h, err := Dimensions(side*side*Channels, Channels, DefaultMaxDimension)
		if err != nil {
			t.Fatalf("side=%d: %v", side, err)
		}
		if w != side || h != side {
			t.Errorf("side=%d: got %dx%d", side, w, h)
		}
	}
}

func TestDimensions_CapacityExceeded(t *testing.T) {
	if _, _, err := Dimensions(16*16*Channels+1, Channels, 16); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	w, h, err := Dimensions(16*16*Channels, Channels, 16)
	if err != nil {
		t.Fatal(err)
	}
	if w != 16 || h != 16 {
		t.Fatalf("got %dx%d, want 16x16", w, h)
	}
}

func TestDimensions_Defaults(t *testing.T) {
	w, h, err := Dimensions(12, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("got %dx%d, want 2x2", w, h)
	}

	if _, _, err := Dimensions(-1, Channels, 0); err == nil {
		t.Fatal("expected error for negative total")
	}
}

func TestDimensions_FourChannels(t *testing.T) {
	w, h, err := Dimensions(16, 4, 100)
	if err != nil {
		t.Fatal(err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("got %dx%d, want 2x2", w, h)
	}
}
