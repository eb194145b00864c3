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

// Remaps every scanline of src through lut and writes it to sink, in order.
// Aborts on the first read or write failure
func Apply(src Source, sink Sink, lut *LUT, opts *Options) error {
	if opts == nil {
		opts = NewOptionsDefault()
	}
	lines, samples := src.Lines(), src.Samples()
	for y := 0; y < lines; y++ {
		opts.notify(y)
		line, err := src.ReadScanline(y)
		if err != nil {
			return fmt.Errorf("%w: scanline %d: %w", ErrSourceRead, y, err)
		}
		if len(line) != samples {
			return fmt.Errorf("%w: scanline %d has %d samples, expected %d", ErrSourceRead, y, len(line), samples)
		}
		lut.Remap(line)
		if err := sink.WriteScanline(y, line); err != nil {
			return fmt.Errorf("%w: scanline %d: %w", ErrSinkWrite, y, err)
		}
	}
	return nil
}
