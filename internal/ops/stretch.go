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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlnoga/doqlight/internal/doq"
	"github.com/mlnoga/doqlight/internal/geotiff"
	"github.com/mlnoga/doqlight/internal/preview"
	"github.com/mlnoga/doqlight/internal/stretch"
)

// Which of the two coordinate systems in a DOQ header georeferences the output
type Datum string

const (
	DatumPrimary   Datum = "primary"
	DatumSecondary Datum = "secondary"
)

// Contrast-stretches a greyscale DOQ into a GeoTIFF, with optional JPEG preview
// and header dump
type OpStretch struct {
	OpBase
	In           string          `json:"in"`
	Out          string          `json:"out"`
	JPG          string          `json:"jpg"`          // preview file name, empty for none
	PreviewWidth int             `json:"previewWidth"` // in pixels
	Header       bool            `json:"header"`       // also write <out>.hdr
	Datum        Datum           `json:"datum"`
	Options      stretch.Options `json:"options"`
}

var _ Operator = (*OpStretch)(nil) // this type is an Operator
func init() { SetOperatorFactory(func() Operator { return NewOpStretchDefault() }) } // register the operator for JSON decoding

func NewOpStretchDefault() *OpStretch { return NewOpStretch("", "") }

func NewOpStretch(in, out string) *OpStretch {
	return &OpStretch{
		OpBase:       OpBase{Type: "stretch", Active: true},
		In:           in,
		Out:          out,
		PreviewWidth: 1024,
		Datum:        DatumPrimary,
		Options:      *stretch.NewOptionsDefault(),
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpStretch) UnmarshalJSON(data []byte) error {
	type defaults OpStretch
	def := defaults(*NewOpStretchDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpStretch(def)
	return nil
}

func (op *OpStretch) Paths() []string {
	ps := []string{op.In, op.Out}
	if op.JPG != "" {
		ps = append(ps, op.JPG)
	}
	return ps
}

func (op *OpStretch) Apply(c *Context) (err error) {
	if !op.Active {
		return nil
	}
	if op.In == "" || op.Out == "" {
		return errors.New("stretch needs an input and an output file name")
	}
	if filepath.Clean(op.In) == filepath.Clean(op.Out) {
		return fmt.Errorf("input and output file names do not differ: %s", op.In)
	}
	if op.Datum != DatumPrimary && op.Datum != DatumSecondary {
		return fmt.Errorf("unknown datum selection '%s'", op.Datum)
	}

	d, err := doq.Open(op.In)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.CheckGrayscale(); err != nil {
		return fmt.Errorf("%s: %w", op.In, err)
	}
	if d.Samples() == 0 || d.Lines() == 0 {
		return fmt.Errorf("%s: %w", op.In, stretch.ErrDegenerateRaster)
	}
	fmt.Fprintf(c.Log, "Loaded %s DOQ from %s%s\n", d.DimensionsToString(), op.In, viaGDAL(d))
	c.logRasterSize(d.Samples(), d.Lines())

	meta := op.metadata(d, c)
	fmt.Fprintf(c.Log, "Description: %s\n", meta.Description)
	if meta.Geo != nil {
		fmt.Fprintf(c.Log, "Georeference: %s, origin %.3f,%.3f, pixel size %g\n", meta.Geo.Citation, meta.Geo.X, meta.Geo.Y, meta.Geo.PixelSizeX)
	}

	tw, err := geotiff.Create(op.Out, d.Samples(), d.Lines(), meta)
	if err != nil {
		return err
	}
	var pv *preview.Sink
	sink := stretch.Sink(tw)
	if op.JPG != "" {
		if pv, err = preview.NewSink(d.Samples(), d.Lines(), op.PreviewWidth); err != nil {
			tw.Close()
			os.Remove(op.Out)
			return err
		}
		sink = stretch.MultiSink(tw, pv)
	}

	opts := progressOptions(op.Options, c)
	_, err = stretch.Convert(d, sink, &opts, c.Log)
	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(op.Out)
		return err
	}
	fmt.Fprintf(c.Log, "Wrote %s\n", op.Out)

	if op.Header {
		dumpName, err := d.WriteHeaderDumpFile(op.Out)
		if err != nil {
			return fmt.Errorf("writing header dump: %w", err)
		}
		fmt.Fprintf(c.Log, "Wrote header to %s\n", dumpName)
	}

	if pv != nil {
		if err := pv.WriteJPGToFile(op.JPG); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
		fmt.Fprintf(c.Log, "Wrote preview to %s\n", op.JPG)
	}
	return nil
}

func viaGDAL(d *doq.File) string {
	if d.ViaGDAL() {
		return " via GDAL"
	}
	return ""
}

// Returns a copy of opts reporting progress to the context log
func progressOptions(opts stretch.Options, c *Context) stretch.Options {
	if c.ProgressInterval > 0 {
		opts.ProgressInterval = c.ProgressInterval
	}
	if opts.Progress == nil {
		if c.Spinner {
			opts.Progress = NewSpinner(c.Log).Tick
		} else {
			opts.Progress = NewDots(c.Log).Tick
		}
	}
	return opts
}

// Derives the TIFF tags from the DOQ header. Missing header fields produce warnings,
// and the affected tags are left out
func (op *OpStretch) metadata(d *doq.File, c *Context) *geotiff.Metadata {
	meta := &geotiff.Metadata{Software: c.Software, ResolutionUnit: geotiff.ResUnitCentimeter}

	name, ok := d.QuadName()
	if !ok || name == "" {
		fmt.Fprintf(c.Log, "Warning: No quad name, assuming NONAME DOQ\n")
		name = "NONAME DOQ"
	}
	if states := d.States(); len(states) > 0 && states[0] != "" {
		name += "," + states[0]
	}
	if quadrant, ok := d.Quadrant(); ok && quadrant != "" {
		meta.Description = fmt.Sprintf("USGS DOQ 1:12000 %s Q-Quad of %s.", quadrant, name)
		meta.XResolution, meta.YResolution = 120, 120
	} else {
		meta.Description = fmt.Sprintf("USGS DOQ 1:24000 Quad of %s.", name)
		meta.XResolution, meta.YResolution = 240, 240
	}

	if year, month, day, err := d.ProdYearMonthDay(); err == nil {
		meta.DateTime = fmt.Sprintf("%4d:%02d:%02d %02d:%02d:%02d", year, month, day, 0, 0, 0)
	} else {
		fmt.Fprintf(c.Log, "Warning: No production date: %s\n", err)
	}

	geo, err := op.georeference(d, c.Log)
	if err != nil {
		fmt.Fprintf(c.Log, "Warning: Omitting georeference: %s\n", err)
	} else {
		meta.Geo = geo
	}
	return meta
}

// The primary coordinate system comes from GDAL when it reads the quad, anything else
// from the header keywords
func (op *OpStretch) georeference(d *doq.File, log io.Writer) (*geotiff.GeoReference, error) {
	if op.Datum == DatumPrimary {
		if transform, wkt, ok := d.GDALGeoReference(); ok {
			return geotiff.NewTransformReference(transform, wkt), nil
		}
	}
	var datum string
	var ok bool
	var x, y float64
	var err error
	if op.Datum == DatumSecondary {
		datum, ok = d.SecondaryHorizontalDatum()
		x, y, err = d.SecondaryOrigin()
	} else {
		datum, ok = d.HorizontalDatum()
		x, y, err = d.Origin()
	}
	if err != nil {
		return nil, err
	}
	year := datumYear(datum, ok, log)

	res, err := d.HorizontalResolution()
	if err != nil {
		return nil, err
	}
	zone, err := d.CoordinateZone()
	if err != nil {
		return nil, err
	}
	return geotiff.NewUTMReference(x, y, res, zone, year)
}

// Maps the datum name to the year of the North American datum. Anything other than
// NAD27 falls back to NAD83
func datumYear(datum string, ok bool, log io.Writer) int {
	datum = strings.TrimSpace(datum)
	switch {
	case !ok || datum == "":
		fmt.Fprintf(log, "Warning: Datum not found, assuming NAD83\n")
	case datum == "NAD27":
		return 1927
	case datum == "NAD83":
	default:
		fmt.Fprintf(log, "Warning: Unsupported datum %s, using NAD83\n", datum)
	}
	return 1983
}
