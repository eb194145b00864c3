// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func feed(t *testing.T, s *Sink, width, height int, pixel func(x, y int) uint8) {
	t.Helper()
	line := make([]byte, width)
	for y := 0; y < height; y++ {
		for x := range line {
			line[x] = pixel(x, y)
		}
		if err := s.WriteScanline(y, line); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPreviewDimensions(t *testing.T) {
	tcs := []struct {
		w, h, outW   int
		wantW, wantH int
	}{
		{1000, 500, 100, 100, 50},
		{1000, 500, 2000, 1000, 500},
		{7, 3, 7, 7, 3},
		{640, 1, 64, 64, 1},
	}
	for _, tc := range tcs {
		s, err := NewSink(tc.w, tc.h, tc.outW)
		if err != nil {
			t.Fatal(err)
		}
		feed(t, s, tc.w, tc.h, func(x, y int) uint8 { return uint8(x + y) })
		img, err := s.Image()
		if err != nil {
			t.Fatal(err)
		}
		if got := img.Bounds(); got != image.Rect(0, 0, tc.wantW, tc.wantH) {
			t.Errorf("%dx%d -> %d: bounds=%v; want %dx%d", tc.w, tc.h, tc.outW, got, tc.wantW, tc.wantH)
		}
	}
}

func TestPreviewBoundedMemory(t *testing.T) {
	s, err := NewSink(10000, 8000, 100)
	if err != nil {
		t.Fatal(err)
	}
	if b := s.img.Bounds(); b.Dx() > 200 || b.Dy() > 160 {
		t.Errorf("intermediate image %v; want at most 200x160", b)
	}
}

func TestPreviewConstant(t *testing.T) {
	s, err := NewSink(400, 300, 40)
	if err != nil {
		t.Fatal(err)
	}
	feed(t, s, 400, 300, func(x, y int) uint8 { return 77 })
	img, err := s.Image()
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range img.Pix {
		if p < 76 || p > 78 {
			t.Fatalf("pixel %d=%d; want 77", i, p)
		}
	}
}

func TestPreviewIncomplete(t *testing.T) {
	s, err := NewSink(4, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	feed(t, s, 4, 2, func(x, y int) uint8 { return 0 })
	if _, err := s.Image(); err == nil {
		t.Errorf("incomplete preview produced an image")
	}
	if err := s.WriteScanline(3, make([]byte, 4)); err == nil {
		t.Errorf("out of order scanline accepted")
	}
}

func TestPreviewJPG(t *testing.T) {
	s, err := NewSink(64, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	feed(t, s, 64, 32, func(x, y int) uint8 { return uint8(4 * x) })
	var buf bytes.Buffer
	if err := s.WriteJPG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 32, 16) {
		t.Errorf("bounds=%v; want 32x16", got)
	}

	fileName := filepath.Join(t.TempDir(), "preview.jpg")
	if err := s.WriteJPGToFile(fileName); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(fileName); err != nil || fi.Size() == 0 {
		t.Errorf("preview file %v, %v; want non-empty file", fi, err)
	}
}

func TestNewSinkRejectsInvalid(t *testing.T) {
	if _, err := NewSink(0, 10, 10); err == nil {
		t.Errorf("zero width accepted")
	}
	if _, err := NewSink(10, 10, 0); err == nil {
		t.Errorf("zero preview width accepted")
	}
}
