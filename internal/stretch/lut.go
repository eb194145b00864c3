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
	"math"
)

// Clipped intensity band to be stretched over the full output range. 0 <= Low <= High <= 255
type Range struct {
	Low  float64
	High float64
}

// Derives the stretch band mean +/- sigma standard deviations, clipped to [0,255]
func NewRange(s *Stats, sigma float64) Range {
	return Range{
		Low:  clamp(s.Mean-sigma*s.StdDev, 0, 255),
		High: clamp(s.Mean+sigma*s.StdDev, 0, 255),
	}
}

func (r Range) String() string {
	return fmt.Sprintf("[%.4g,%.4g]", r.Low, r.High)
}

// Integer band limits, rounded half away from zero
func (r Range) Bounds() (imin, imax int) {
	return int(math.Round(r.Low)), int(math.Round(r.High))
}

// Output levels per unit of input intensity within the band. Zero for an empty band
func (r Range) Scale() float64 {
	if r.High <= r.Low {
		return 0
	}
	return 256 / (r.High - r.Low)
}

// Maps every 8-bit input intensity to an 8-bit output intensity
type LUT [256]uint8

// Builds the lookup table for the given band: black below it, white from its upper
// limit on, and a ramp inside shaped by mode
func BuildLUT(r Range, mode RampMode) *LUT {
	imin, imax := r.Bounds()
	scale := r.Scale()

	var ramp []uint8
	switch mode {
	case RampLinear:
		ramp = linearRamp(imin, imax, r.Low, scale)
	default:
		ramp = scanRamp(imax-imin, 0, scale)
	}

	lut := &LUT{}
	for i := range lut {
		switch {
		case i < imin:
			lut[i] = 0
		case i < imax:
			lut[i] = ramp[i-imin]
		default:
			lut[i] = 255
		}
	}
	return lut
}

// Produces n ramp values as a scan from seed in steps of step: each value is the seed
// before the step is added
func scanRamp(n int, seed, step float64) []uint8 {
	if n <= 0 {
		return nil
	}
	out := make([]uint8, n)
	for i, v := 0, seed; i < n; i, v = i+1, v+step {
		out[i] = toByte(v)
	}
	return out
}

// Produces ramp values for indices [imin,imax) following scale*(i-low)
func linearRamp(imin, imax int, low, scale float64) []uint8 {
	if imax <= imin {
		return nil
	}
	out := make([]uint8, imax-imin)
	for i := range out {
		out[i] = toByte(scale * (float64(imin+i) - low))
	}
	return out
}

// Remaps a scanline in place
func (l *LUT) Remap(line []byte) {
	for i, v := range line {
		line[i] = l[v]
	}
}

// Rounds half away from zero and clamps to [0,255]
func toByte(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
