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

package geotiff

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/lukeroth/gdal"
)

// Resolution units
const (
	ResUnitNone       = 1
	ResUnitInch       = 2
	ResUnitCentimeter = 3
)

var ErrOutOfOrder = errors.New("scanline out of order")

// Uncompressed single band strips of one scanline each. GDAL switches to BigTIFF only
// when the image does not fit a classic TIFF
var createOptions = []string{"COMPRESS=NONE", "INTERLEAVE=BAND", "TILED=NO", "BLOCKYSIZE=1", "BIGTIFF=IF_NEEDED"}

// Descriptive tags for the output file. Zero values are omitted
type Metadata struct {
	Description    string
	Software       string
	DateTime       string // "YYYY:MM:DD HH:MM:SS"
	XResolution    float64
	YResolution    float64
	ResolutionUnit uint16
	Geo            *GeoReference
}

// Streams an 8-bit greyscale image into a GeoTIFF through the GDAL GTiff driver.
// Implements stretch.Sink
type Writer struct {
	ds     gdal.Dataset
	band   gdal.RasterBand
	width  int
	height int
	next   int
	closed bool
}

// Creates the named GeoTIFF and sets its tags and georeference
func Create(fileName string, width, height int, meta *Metadata) (*Writer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	driver, err := gdal.GetDriverByName("GTiff")
	if err != nil {
		return nil, err
	}
	ds := driver.Create(fileName, width, height, 1, gdal.Byte, createOptions)
	if reflect.DeepEqual(ds, gdal.Dataset{}) {
		return nil, fmt.Errorf("cannot create GeoTIFF %s", fileName)
	}
	tw := &Writer{ds: ds, band: ds.RasterBand(1), width: width, height: height}
	if meta != nil {
		if err := tw.setMetadata(meta); err != nil {
			ds.Close()
			return nil, fmt.Errorf("%s: %w", fileName, err)
		}
	}
	return tw, nil
}

// TIFF tags go through the GTiff driver's TIFFTAG_ metadata items
func (tw *Writer) setMetadata(m *Metadata) error {
	var items [][2]string
	if m.Description != "" {
		items = append(items, [2]string{"TIFFTAG_IMAGEDESCRIPTION", m.Description})
	}
	if m.Software != "" {
		items = append(items, [2]string{"TIFFTAG_SOFTWARE", m.Software})
	}
	if m.DateTime != "" {
		items = append(items, [2]string{"TIFFTAG_DATETIME", m.DateTime})
	}
	if m.XResolution > 0 && m.YResolution > 0 {
		unit := m.ResolutionUnit
		if unit == 0 {
			unit = ResUnitInch
		}
		items = append(items,
			[2]string{"TIFFTAG_XRESOLUTION", strconv.FormatFloat(m.XResolution, 'f', -1, 64)},
			[2]string{"TIFFTAG_YRESOLUTION", strconv.FormatFloat(m.YResolution, 'f', -1, 64)},
			[2]string{"TIFFTAG_RESOLUTIONUNIT", strconv.Itoa(int(unit))})
	}
	if m.Geo != nil {
		items = append(items, [2]string{"AREA_OR_POINT", "Point"})
	}
	for _, it := range items {
		if err := tw.ds.SetMetadataItem(it[0], it[1], ""); err != nil {
			return fmt.Errorf("setting %s: %w", it[0], err)
		}
	}
	if m.Geo == nil {
		return nil
	}

	wkt, err := m.Geo.ProjectionWKT()
	if err != nil {
		return err
	}
	if err := tw.ds.SetProjection(wkt); err != nil {
		return fmt.Errorf("setting projection: %w", err)
	}
	if err := tw.ds.SetGeoTransform(m.Geo.GeoTransform()); err != nil {
		return fmt.Errorf("setting geotransform: %w", err)
	}
	return nil
}

func (tw *Writer) Lines() int   { return tw.height }
func (tw *Writer) Samples() int { return tw.width }

// Writes scanline y. Scanlines must arrive exactly once, in increasing order
func (tw *Writer) WriteScanline(y int, line []byte) error {
	if tw.closed {
		return errors.New("write to closed writer")
	}
	if y != tw.next {
		return fmt.Errorf("%w: got %d, expected %d", ErrOutOfOrder, y, tw.next)
	}
	if len(line) != tw.width {
		return fmt.Errorf("scanline %d has %d samples, expected %d", y, len(line), tw.width)
	}
	if err := tw.band.IO(gdal.Write, 0, y, tw.width, 1, line, tw.width, 1, 0, 0); err != nil {
		return fmt.Errorf("scanline %d: %w", y, err)
	}
	tw.next++
	return nil
}

// Flushes and closes the dataset. Fails if not all scanlines have been written, in
// which case the file holds an incomplete image
func (tw *Writer) Close() error {
	if tw.closed {
		return nil
	}
	tw.closed = true
	tw.ds.FlushCache()
	tw.ds.Close()
	if tw.next != tw.height {
		return fmt.Errorf("incomplete image: %d of %d scanlines written", tw.next, tw.height)
	}
	return nil
}
