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
	"bytes"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/lukeroth/gdal"
	"golang.org/x/image/tiff"
)

func writeTestImage(t *testing.T, width, height int, meta *Metadata) (string, []byte) {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "test.tif")
	tw, err := Create(fileName, width, height, meta)
	if err != nil {
		t.Fatal(err)
	}
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = uint8(i * 7)
	}
	for y := 0; y < height; y++ {
		if err := tw.WriteScanline(y, pix[y*width:(y+1)*width]); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return fileName, pix
}

func TestWriterDecodes(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {3, 5}, {17, 4}, {64, 33}} {
		fileName, pix := writeTestImage(t, dims[0], dims[1], nil)
		bs, err := os.ReadFile(fileName)
		if err != nil {
			t.Fatal(err)
		}
		img, err := tiff.Decode(bytes.NewReader(bs))
		if err != nil {
			t.Fatalf("%dx%d: %s", dims[0], dims[1], err)
		}
		gray, ok := img.(*image.Gray)
		if !ok {
			t.Fatalf("%dx%d: decoded %T; want *image.Gray", dims[0], dims[1], img)
		}
		if gray.Bounds() != image.Rect(0, 0, dims[0], dims[1]) {
			t.Errorf("bounds=%v; want %dx%d", gray.Bounds(), dims[0], dims[1])
		}
		for y := 0; y < dims[1]; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+dims[0]]
			if !bytes.Equal(row, pix[y*dims[0]:(y+1)*dims[0]]) {
				t.Errorf("%dx%d row %d=%v; want %v", dims[0], dims[1], y, row, pix[y*dims[0]:(y+1)*dims[0]])
			}
		}
	}
}

func TestWriterTags(t *testing.T) {
	geo, err := NewUTMReference(445120, 4087340, 1, 16, 1983)
	if err != nil {
		t.Fatal(err)
	}
	meta := &Metadata{
		Description:    "USGS DOQ 1:12000 NE Q-Quad of HOPKINSVILLE,KY.",
		Software:       "doqlight",
		DateTime:       "1996:04:09 00:00:00",
		XResolution:    120,
		YResolution:    120,
		ResolutionUnit: ResUnitCentimeter,
		Geo:            geo,
	}
	fileName, pix := writeTestImage(t, 5, 3, meta)

	ds, err := gdal.Open(fileName, gdal.ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()
	if ds.RasterXSize() != 5 || ds.RasterYSize() != 3 || ds.RasterCount() != 1 {
		t.Fatalf("dataset %dx%dx%d; want 5x3x1", ds.RasterXSize(), ds.RasterYSize(), ds.RasterCount())
	}

	items := map[string]string{}
	for _, kv := range ds.Metadata("") {
		if k, v, ok := strings.Cut(kv, "="); ok {
			items[k] = v
		}
	}
	for k, want := range map[string]string{
		"TIFFTAG_IMAGEDESCRIPTION": meta.Description,
		"TIFFTAG_SOFTWARE":         meta.Software,
		"TIFFTAG_DATETIME":         meta.DateTime,
		"TIFFTAG_RESOLUTIONUNIT":   "3 (pixels/cm)",
		"AREA_OR_POINT":            "Point",
	} {
		if items[k] != want {
			t.Errorf("%s=%q; want %q", k, items[k], want)
		}
	}
	if xres, err := strconv.ParseFloat(items["TIFFTAG_XRESOLUTION"], 64); err != nil || xres != 120 {
		t.Errorf("x resolution=%q; want 120", items["TIFFTAG_XRESOLUTION"])
	}

	gt := ds.GeoTransform()
	if want := geo.GeoTransform(); math.Abs(gt[0]-want[0]) > 1e-6 || math.Abs(gt[3]-want[3]) > 1e-6 || gt[1] != 1 || gt[5] != -1 {
		t.Errorf("geotransform=%v; want %v", gt, want)
	}
	if proj := ds.Projection(); !strings.Contains(proj, `"26916"`) {
		t.Errorf("projection lacks EPSG 26916:\n%s", proj)
	}

	line := make([]byte, 5)
	if err := ds.RasterBand(1).IO(gdal.Read, 0, 2, 5, 1, line, 5, 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(line, pix[10:15]) {
		t.Errorf("line 2=%v; want %v", line, pix[10:15])
	}
}

func TestGeoTransform(t *testing.T) {
	g, err := NewUTMReference(445120, 4087340, 2, 16, 1927)
	if err != nil {
		t.Fatal(err)
	}
	gt := g.GeoTransform()
	if want := [6]float64{445119, 2, 0, 4087341, 0, -2}; gt != want {
		t.Errorf("geotransform=%v; want %v", gt, want)
	}
	back := NewTransformReference(gt, "WKT")
	if back.X != g.X || back.Y != g.Y || back.PixelSizeX != 2 || back.PixelSizeY != 2 {
		t.Errorf("round trip=%+v; want origin %g,%g size 2", back, g.X, g.Y)
	}
	if wkt, err := back.ProjectionWKT(); err != nil || wkt != "WKT" {
		t.Errorf("wkt=%q,%v; want the given text", wkt, err)
	}
	if wkt, err := g.ProjectionWKT(); err != nil || !strings.Contains(wkt, "NAD27") {
		t.Errorf("EPSG:26716 wkt=%q,%v; want NAD27 projection", wkt, err)
	}
}

func TestNewUTMReference(t *testing.T) {
	tcs := []struct {
		zone, year, epsg int
		ok               bool
	}{
		{16, 1983, 26916, true},
		{10, 1927, 26710, true},
		{23, 1983, 26923, true},
		{23, 1927, 0, false},
		{0, 1983, 0, false},
		{16, 1984, 0, false},
	}
	for _, tc := range tcs {
		g, err := NewUTMReference(0, 0, 1, tc.zone, tc.year)
		if (err == nil) != tc.ok {
			t.Errorf("zone %d year %d err=%v; want ok=%v", tc.zone, tc.year, err, tc.ok)
			continue
		}
		if tc.ok && g.EPSG != tc.epsg {
			t.Errorf("zone %d year %d epsg=%d; want %d", tc.zone, tc.year, g.EPSG, tc.epsg)
		}
	}
}

func TestWriterRejectsOutOfOrder(t *testing.T) {
	tw, err := Create(filepath.Join(t.TempDir(), "order.tif"), 2, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteScanline(1, []byte{0, 0}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("err=%v; want %v", err, ErrOutOfOrder)
	}
	if err := tw.WriteScanline(0, []byte{0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteScanline(0, []byte{0, 0}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("repeated scanline err=%v; want %v", err, ErrOutOfOrder)
	}
	if err := tw.WriteScanline(1, []byte{0}); err == nil {
		t.Errorf("short scanline accepted")
	}
	if err := tw.Close(); err == nil {
		t.Errorf("closing an incomplete image succeeded")
	}
	if err := tw.WriteScanline(1, []byte{0, 0}); err == nil {
		t.Errorf("write after close succeeded")
	}
}

func TestCreateRejectsEmptyImages(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-1, 5}} {
		if _, err := Create(filepath.Join(t.TempDir(), "empty.tif"), dims[0], dims[1], nil); err == nil {
			t.Errorf("%dx%d accepted", dims[0], dims[1])
		}
	}
}
