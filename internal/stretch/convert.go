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

import (
	"fmt"
	"io"
)

// Outcome of a conversion
type Result struct {
	Stats *Stats
	Range Range
	LUT   *LUT
}

// Contrast-stretches src into sink. Statistics, lookup table and remapping are computed
// strictly one after the other, reading the source three times in total
func Convert(src Source, sink Sink, opts *Options, logWriter io.Writer) (*Result, error) {
	if opts == nil {
		opts = NewOptionsDefault()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logWriter == nil {
		logWriter = io.Discard
	}

	fmt.Fprintf(logWriter, "Calculating statistics over %d scanlines of %d samples...\n", src.Lines(), src.Samples())
	stats, err := CalcStats(src, opts)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(logWriter, "\n%v\n", stats)

	r := NewRange(stats, opts.Sigma)
	imin, imax := r.Bounds()
	if imin == imax {
		fmt.Fprintf(logWriter, "Warning: empty stretch band %v, output will be binary\n", r)
	}
	lut := BuildLUT(r, opts.Ramp)
	fmt.Fprintf(logWriter, "Stretching %v (integer [%d,%d)) with scale %.4g and %v ramp\n", r, imin, imax, r.Scale(), opts.Ramp)

	fmt.Fprintf(logWriter, "Converting %d scanlines...\n", src.Lines())
	if err := Apply(src, sink, lut, opts); err != nil {
		return nil, err
	}
	fmt.Fprintf(logWriter, "\nDone.\n")

	return &Result{Stats: stats, Range: r, LUT: lut}, nil
}
