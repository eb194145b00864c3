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
	"errors"
	"fmt"
	"math"
)

// Global brightness statistics of a raster
type Stats struct {
	Mean      float64     // Population mean of all samples
	StdDev    float64     // Population standard deviation of all samples
	Min       uint8       // Smallest sample
	Max       uint8       // Largest sample
	Count     uint64      // Number of samples
	Histogram [256]uint64 // Number of samples per intensity
}

// Pretty print stats to string
func (s *Stats) String() string {
	return fmt.Sprintf("Min %d Max %d Mean %.6g StdDev %.6g Samples %d", s.Min, s.Max, s.Mean, s.StdDev, s.Count)
}

// Two-phase statistics accumulator. Phase one folds scanlines into an exact sum to
// resolve the mean. Phase two folds the same scanlines again into the sum of squared
// deviations from that mean. No scanline data is retained between calls.
type Accumulator struct {
	sum   uint64 // exact sum of samples, phase one
	count uint64 // samples seen in phase one
	seen  uint64 // samples seen in phase two

	sumSq  float64 // Neumaier-compensated sum of squared deviations, phase two
	sumSqC float64 // compensation term for sumSq

	mean     float64
	meanDone bool

	min, max  uint8
	histogram [256]uint64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{min: math.MaxUint8}
}

// Folds a scanline into the sum for the mean
func (a *Accumulator) AddMean(line []byte) error {
	if a.meanDone {
		return errors.New("mean already resolved")
	}
	lineSum := uint64(0)
	for _, v := range line {
		lineSum += uint64(v)
		a.histogram[v]++
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.sum += lineSum
	a.count += uint64(len(line))
	return nil
}

// Resolves the mean from all scanlines folded so far. Must be called before AddVariance
func (a *Accumulator) FinishMean() (mean float64, err error) {
	if a.count == 0 {
		return 0, ErrDegenerateRaster
	}
	a.mean = float64(a.sum) / float64(a.count)
	a.meanDone = true
	return a.mean, nil
}

// Folds a scanline into the sum of squared deviations from the resolved mean
func (a *Accumulator) AddVariance(line []byte) error {
	if !a.meanDone {
		return errors.New("mean not resolved yet")
	}
	lineSq := float64(0)
	for _, v := range line {
		diff := float64(v) - a.mean
		lineSq += diff * diff
	}
	a.addSq(lineSq)
	a.seen += uint64(len(line))
	return nil
}

// Neumaier summation: bounds the rounding error independently of the number of scanlines
func (a *Accumulator) addSq(x float64) {
	t := a.sumSq + x
	if math.Abs(a.sumSq) >= math.Abs(x) {
		a.sumSqC += (a.sumSq - t) + x
	} else {
		a.sumSqC += (x - t) + a.sumSq
	}
	a.sumSq = t
}

// Returns the final statistics. Both phases must have covered the same number of samples
func (a *Accumulator) Finish() (*Stats, error) {
	if !a.meanDone {
		return nil, errors.New("mean not resolved yet")
	}
	if a.seen != a.count {
		return nil, fmt.Errorf("variance pass covered %d samples, mean pass %d", a.seen, a.count)
	}
	variance := (a.sumSq + a.sumSqC) / float64(a.count)
	if variance < 0 {
		variance = 0
	}
	return &Stats{
		Mean:      a.mean,
		StdDev:    math.Sqrt(variance),
		Min:       a.min,
		Max:       a.max,
		Count:     a.count,
		Histogram: a.histogram,
	}, nil
}

// Calculates population mean and standard deviation of the source with two full sequential
// passes, holding one scanline in memory at a time
func CalcStats(src Source, opts *Options) (*Stats, error) {
	lines, samples := src.Lines(), src.Samples()
	if lines <= 0 || samples <= 0 {
		return nil, fmt.Errorf("%w: %d lines of %d samples", ErrDegenerateRaster, lines, samples)
	}
	if opts == nil {
		opts = NewOptionsDefault()
	}

	acc := NewAccumulator()
	if err := foldLines(src, opts, acc.AddMean); err != nil {
		return nil, err
	}
	if _, err := acc.FinishMean(); err != nil {
		return nil, err
	}
	if err := foldLines(src, opts, acc.AddVariance); err != nil {
		return nil, err
	}
	return acc.Finish()
}

// Reads all scanlines of src in order and hands each one to fold
func foldLines(src Source, opts *Options, fold func(line []byte) error) error {
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
		if err := fold(line); err != nil {
			return err
		}
	}
	return nil
}
