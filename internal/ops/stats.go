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

package ops

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mlnoga/doqlight/internal/doq"
	"github.com/mlnoga/doqlight/internal/stats"
	"github.com/mlnoga/doqlight/internal/stretch"
)

// Computes the statistics of a greyscale DOQ and the stretch they imply, without
// writing any output
type OpStats struct {
	OpBase
	In      string          `json:"in"`
	Options stretch.Options `json:"options"`
}

var _ Operator = (*OpStats)(nil) // this type is an Operator
func init() { SetOperatorFactory(func() Operator { return NewOpStatsDefault() }) } // register the operator for JSON decoding

func NewOpStatsDefault() *OpStats { return NewOpStats("") }

func NewOpStats(in string) *OpStats {
	return &OpStats{
		OpBase:  OpBase{Type: "stats", Active: true},
		In:      in,
		Options: *stretch.NewOptionsDefault(),
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpStats) UnmarshalJSON(data []byte) error {
	type defaults OpStats
	def := defaults(*NewOpStatsDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpStats(def)
	return nil
}

func (op *OpStats) Paths() []string { return []string{op.In} }

func (op *OpStats) Apply(c *Context) error {
	if !op.Active {
		return nil
	}
	_, err := op.Compute(c)
	return err
}

// Computes and logs the statistics of the input
func (op *OpStats) Compute(c *Context) (*stretch.Stats, error) {
	if op.In == "" {
		return nil, errors.New("stats needs an input file name")
	}
	opts := progressOptions(op.Options, c)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	d, err := doq.Open(op.In)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	if err := d.CheckGrayscale(); err != nil {
		return nil, fmt.Errorf("%s: %w", op.In, err)
	}
	fmt.Fprintf(c.Log, "Loaded %s DOQ from %s%s\n", d.DimensionsToString(), op.In, viaGDAL(d))
	c.logRasterSize(d.Samples(), d.Lines())

	s, err := stretch.CalcStats(d, &opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.In, err)
	}
	fmt.Fprintf(c.Log, "\n%v\n", s)

	r := stretch.NewRange(s, opts.Sigma)
	imin, imax := r.Bounds()
	fmt.Fprintf(c.Log, "%.4g sigma range %v, integer [%d,%d), scale %.4g\n", opts.Sigma, r, imin, imax, r.Scale())

	peak, count := stats.GetPeak(s.Histogram[:])
	fmt.Fprintf(c.Log, "Histogram peak at %d with %d samples\n", peak, count)
	if mode, stdDev, err := stats.GetModeStdDevFromHistogram(s.Histogram[:]); err != nil {
		fmt.Fprintf(c.Log, "Warning: Gaussian fit of histogram peak failed: %s\n", err)
	} else {
		fmt.Fprintf(c.Log, "Gaussian fit of histogram peak: mode %.4g stddev %.4g\n", mode, stdDev)
	}
	return s, nil
}
