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
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// JPEG quality used for previews
const Quality = 95

// Collects a subsampled copy of a raster streamed through it scanline by scanline,
// and writes it as a JPEG of the requested width. Memory use is bounded by the
// preview size, not by the raster size. Implements stretch.Sink
type Sink struct {
	width, height int // of the full raster
	step          int // keep every step-th scanline and sample
	outWidth      int
	img           *image.Gray
	next          int
}

// Creates a preview sink for a raster of the given dimensions, producing an image
// outWidth pixels wide. Rasters narrower than outWidth are not enlarged
func NewSink(width, height, outWidth int) (*Sink, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if outWidth <= 0 {
		return nil, fmt.Errorf("invalid preview width %d", outWidth)
	}
	if outWidth > width {
		outWidth = width
	}
	// subsample to no less than twice the target width, the final scaler does the rest
	step := width / (2 * outWidth)
	if step < 1 {
		step = 1
	}
	w, h := (width+step-1)/step, (height+step-1)/step
	return &Sink{
		width:    width,
		height:   height,
		step:     step,
		outWidth: outWidth,
		img:      image.NewGray(image.Rect(0, 0, w, h)),
	}, nil
}

func (s *Sink) WriteScanline(y int, line []byte) error {
	if y != s.next {
		return fmt.Errorf("scanline %d out of order, expected %d", y, s.next)
	}
	if len(line) != s.width {
		return fmt.Errorf("scanline %d has %d samples, expected %d", y, len(line), s.width)
	}
	s.next++
	if y%s.step != 0 {
		return nil
	}
	row := s.img.Pix[(y/s.step)*s.img.Stride:]
	for x, i := 0, 0; x < len(line); x, i = x+s.step, i+1 {
		row[i] = line[x]
	}
	return nil
}

// Returns the preview image scaled to the requested width, preserving aspect ratio
func (s *Sink) Image() (*image.Gray, error) {
	if s.next != s.height {
		return nil, fmt.Errorf("incomplete preview: %d of %d scanlines written", s.next, s.height)
	}
	outHeight := (s.height*s.outWidth + s.width/2) / s.width
	if outHeight < 1 {
		outHeight = 1
	}
	b := s.img.Bounds()
	if b.Dx() == s.outWidth && b.Dy() == outHeight {
		return s.img, nil
	}
	dst := image.NewGray(image.Rect(0, 0, s.outWidth, outHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), s.img, b, draw.Src, nil)
	return dst, nil
}

// Encodes the preview as JPEG
func (s *Sink) WriteJPG(w io.Writer) error {
	img, err := s.Image()
	if err != nil {
		return err
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: Quality})
}

// Encodes the preview as JPEG into the named file
func (s *Sink) WriteJPGToFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(file)
	err = s.WriteJPG(writer)
	if err == nil {
		err = writer.Flush()
	}
	return errors.Join(err, file.Close())
}
