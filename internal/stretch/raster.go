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

package stretch

import "fmt"

// A read-only source of 8-bit single band scanlines. Dimensions are fixed for the
// lifetime of the source. Each ReadScanline call returns a buffer owned by the caller.
type Source interface {
	Lines() int
	Samples() int
	ReadScanline(y int) ([]byte, error)
}

// A destination for 8-bit single band scanlines. WriteScanline is called exactly once
// per line, in increasing order. The sink must not retain line after returning.
type Sink interface {
	WriteScanline(y int, line []byte) error
}

// Called with the current scanline index at the configured progress interval
type ProgressFunc func(y int)

// An in-memory raster, implementing both Source and Sink. Intended for small images and tests
type MemRaster struct {
	Width  int
	Height int
	Data   []byte // row-major, Width*Height samples
	Next   int    // next expected scanline for WriteScanline
}

// Creates a zero-filled in-memory raster of the given dimensions
func NewMemRaster(width, height int) *MemRaster {
	return &MemRaster{Width: width, Height: height, Data: make([]byte, width*height)}
}

// Creates an in-memory raster from the given data, which is not copied
func NewMemRasterFromData(width, height int, data []byte) *MemRaster {
	return &MemRaster{Width: width, Height: height, Data: data}
}

func (m *MemRaster) Lines() int   { return m.Height }
func (m *MemRaster) Samples() int { return m.Width }

func (m *MemRaster) ReadScanline(y int) ([]byte, error) {
	if y < 0 || y >= m.Height {
		return nil, fmt.Errorf("scanline %d out of range [0,%d)", y, m.Height)
	}
	line := make([]byte, m.Width)
	copy(line, m.Data[y*m.Width:(y+1)*m.Width])
	return line, nil
}

func (m *MemRaster) WriteScanline(y int, line []byte) error {
	if y != m.Next {
		return fmt.Errorf("scanline %d written out of order, expected %d", y, m.Next)
	}
	if len(line) != m.Width {
		return fmt.Errorf("scanline %d has %d samples, expected %d", y, len(line), m.Width)
	}
	copy(m.Data[y*m.Width:], line)
	m.Next++
	return nil
}

// Returns a sink which writes every scanline to all given sinks in order, stopping at the first error
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (ms multiSink) WriteScanline(y int, line []byte) error {
	for _, s := range ms {
		if err := s.WriteScanline(y, line); err != nil {
			return err
		}
	}
	return nil
}
