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

package doq

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lukeroth/gdal"
)

// Upper bound for samples and lines. Quads are a few thousand pixels on a side
const MaxDimension = 1 << 20

var (
	ErrDimensions = errors.New("invalid raster dimensions")
	ErrTruncated  = errors.New("pixel data truncated")
)

// A USGS digital orthophoto quadrangle with keyword header, opened for random access
// to its scanlines. Implements stretch.Source
//
// Files opened by name are read through the GDAL DOQ2 driver where it accepts them,
// which also supplies the georeferencing. Quads outside the driver's size limits
// and in-memory readers fall back to reading the pixel data at its header offset.
type File struct {
	FileName string
	Header   *Header

	samples      int
	lines        int
	bitsPerPixel int
	dataOffset   int64
	size         int64 // total bytes, or -1 if unknown

	r      io.ReaderAt
	closer io.Closer

	ds   *gdal.Dataset
	band gdal.RasterBand
}

// Opens the DOQ file with the given name and parses its header
func Open(fileName string) (*File, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	d, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	d.FileName = fileName
	d.closer = f
	d.openDataset()
	return d, nil
}

// Parses the header from r and prepares scanline access. Pixels are read from r directly
func NewFile(r io.ReaderAt) (*File, error) {
	h, err := ReadHeader(io.NewSectionReader(r, 0, 1<<62))
	if err != nil {
		return nil, err
	}
	d := &File{Header: h, r: r, size: readerSize(r)}

	dims, err := h.Ints("SAMPLES_AND_LINES", 2)
	if err != nil {
		return nil, err
	}
	if dims[0] < 0 || dims[1] < 0 || dims[0] > MaxDimension || dims[1] > MaxDimension {
		return nil, fmt.Errorf("%w: %d samples %d lines", ErrDimensions, dims[0], dims[1])
	}
	d.samples, d.lines = int(dims[0]), int(dims[1])

	bpp, err := h.Int("BITS_PER_PIXEL")
	if err != nil {
		bpp = 8
	}
	if bpp < 1 || bpp > 32 {
		return nil, fmt.Errorf("invalid bits per pixel %d", bpp)
	}
	d.bitsPerPixel = int(bpp)

	// pixel data follows the header, which is padded to BYTE_COUNT or to a whole scanline
	if bc, err := h.Int("BYTE_COUNT"); err == nil && bc >= h.Length {
		d.dataOffset = bc
	} else {
		d.dataOffset = h.Length
		if lineBytes := int64(d.LineBytes()); lineBytes > 0 && d.dataOffset%lineBytes != 0 {
			d.dataOffset += lineBytes - d.dataOffset%lineBytes
		}
	}

	// a scanline longer than the file is a corrupt header, not a short read
	if d.size >= 0 && d.lines > 0 && d.dataOffset+int64(d.LineBytes()) > d.size {
		return nil, fmt.Errorf("%w: first scanline ends at byte %d, file has %d", ErrTruncated,
			d.dataOffset+int64(d.LineBytes()), d.size)
	}
	return d, nil
}

// Returns the size of r in bytes, or -1 if r cannot tell
func readerSize(r io.ReaderAt) int64 {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Stat() (os.FileInfo, error) }:
		if fi, err := v.Stat(); err == nil {
			return fi.Size()
		}
	}
	return -1
}

// Attaches the GDAL dataset for 8-bit greyscale quads the DOQ2 driver recognizes
func (d *File) openDataset() {
	if d.FileName == "" || !d.IsGrayscale() || d.bitsPerPixel != 8 || d.samples == 0 || d.lines == 0 {
		return
	}
	ds, err := gdal.Open(d.FileName, gdal.ReadOnly)
	if err != nil {
		return
	}
	if ds.Driver().ShortName() != "DOQ2" || ds.RasterXSize() != d.samples || ds.RasterYSize() != d.lines ||
		ds.RasterCount() != 1 || ds.RasterBand(1).RasterDataType() != gdal.Byte {
		ds.Close()
		return
	}
	d.ds = &ds
	d.band = ds.RasterBand(1)
}

func (d *File) Close() error {
	if d.ds != nil {
		d.ds.Close()
		d.ds = nil
	}
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// Returns true if pixels are read through GDAL
func (d *File) ViaGDAL() bool { return d.ds != nil }

// Affine transform and projection WKT reported by GDAL for the primary coordinate system.
// The transform refers to the outer corner of the upper left pixel
func (d *File) GDALGeoReference() (transform [6]float64, wkt string, ok bool) {
	if d.ds == nil {
		return transform, "", false
	}
	transform, wkt = d.ds.GeoTransform(), d.ds.Projection()
	return transform, wkt, wkt != "" && transform[1] != 0
}

func (d *File) Samples() int      { return d.samples }
func (d *File) Lines() int        { return d.lines }
func (d *File) BitsPerPixel() int { return d.bitsPerPixel }
func (d *File) DataOffset() int64 { return d.dataOffset }

// Bytes per scanline across all bands
func (d *File) LineBytes() int {
	return d.samples * d.bands() * d.bitsPerPixel / 8
}

func (d *File) bands() int {
	if d.IsGrayscale() {
		return 1
	}
	return 3
}

// Reads scanline y into a newly allocated buffer
func (d *File) ReadScanline(y int) ([]byte, error) {
	if y < 0 || y >= d.lines {
		return nil, fmt.Errorf("scanline %d out of range [0,%d)", y, d.lines)
	}
	lineBytes := d.LineBytes()
	off := d.dataOffset + int64(y)*int64(lineBytes)
	if d.size >= 0 && off+int64(lineBytes) > d.size {
		return nil, fmt.Errorf("scanline %d: %w", y, io.ErrUnexpectedEOF)
	}
	buf := make([]byte, lineBytes)
	if d.ds != nil {
		if err := d.band.IO(gdal.Read, 0, y, d.samples, 1, buf, d.samples, 1, 0, 0); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		return buf, nil
	}
	n, err := d.r.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && n == lineBytes) {
		return nil, err
	}
	return buf, nil
}

// Returns true if the image is a single band greyscale image with 8 bits per pixel
func (d *File) IsGrayscale() bool {
	org, _ := d.Header.Get("BAND_ORGANIZATION")
	return strings.EqualFold(strings.TrimSpace(org), "SINGLE FILE")
}

// Checks that the image can be contrast-stretched
func (d *File) CheckGrayscale() error {
	if !d.IsGrayscale() {
		org, _ := d.Header.Get("BAND_ORGANIZATION")
		return fmt.Errorf("only greyscale DOQ data is supported, band organization is '%s'", org)
	}
	if d.bitsPerPixel != 8 {
		return fmt.Errorf("only 8 bits per pixel are supported, got %d", d.bitsPerPixel)
	}
	return nil
}

func (d *File) QuadName() (string, bool) { return d.Header.Get("QUADRANGLE_NAME") }
func (d *File) Quadrant() (string, bool) { return d.Header.Get("QUADRANT") }
func (d *File) States() []string         { return d.Header.GetAll("STATE") }
func (d *File) ProdDate() (string, bool) { return d.Header.Get("PRODUCTION_DATE") }

func (d *File) HorizontalDatum() (string, bool) { return d.Header.Get("HORIZONTAL_DATUM") }
func (d *File) SecondaryHorizontalDatum() (string, bool) {
	return d.Header.Get("SECONDARY_HORIZONTAL_DATUM")
}

// Ground coordinates of the center of the upper left pixel
func (d *File) Origin() (x, y float64, err error) {
	return d.pair("XY_ORIGIN")
}

// Upper left pixel coordinates in the secondary datum
func (d *File) SecondaryOrigin() (x, y float64, err error) {
	return d.pair("SECONDARY_XY_ORIGIN")
}

func (d *File) pair(key string) (x, y float64, err error) {
	vs, err := d.Header.Floats(key, 2)
	if err != nil {
		return 0, 0, err
	}
	return vs[0], vs[1], nil
}

// Ground size of a pixel, typically in meters
func (d *File) HorizontalResolution() (float64, error) {
	return d.Header.Float("HORIZONTAL_RESOLUTION")
}

// UTM zone of the primary and secondary coordinates
func (d *File) CoordinateZone() (int, error) {
	z, err := d.Header.Int("COORDINATE_ZONE")
	return int(z), err
}

// Production date as year, month, day
func (d *File) ProdYearMonthDay() (year, month, day int, err error) {
	vs, err := d.Header.Ints("PRODUCTION_DATE", 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(vs[0]), int(vs[1]), int(vs[2]), nil
}

// One line summary for log output
func (d *File) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", d.samples, d.lines)
}
