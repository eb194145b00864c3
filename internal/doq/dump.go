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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Keywords with textual values listed in the header dump, in order. Numeric keywords are
// interleaved by WriteHeaderDump
var dumpStrings1 = []string{"QUADRANGLE_NAME", "QUADRANT"}
var dumpLatLong = []string{"WEST_LONGITUDE", "EAST_LONGITUDE", "NORTH_LATITUDE", "SOUTH_LATITUDE"}
var dumpStrings2 = []string{"PRODUCTION_DATE", "RASTER_ORDER", "BAND_ORGANIZATION"}
var dumpCorners = []string{
	"NW_QUAD_CORNER_XY", "NE_QUAD_CORNER_XY", "SE_QUAD_CORNER_XY", "SW_QUAD_CORNER_XY",
	"SECONDARY_NW_QUAD_XY", "SECONDARY_NE_QUAD_XY", "SECONDARY_SE_QUAD_XY", "SECONDARY_SW_QUAD_XY",
}
var dumpStrings3 = []string{"SOURCE_DEM_DATE", "AGENCY", "PRODUCER", "PRODUCTION_SYSTEM", "COMPRESSION",
	"STANDARD_VERSION", "METADATA_DATE"}

// Writes a plain-text summary of the DOQ header to <fileName>.hdr
func (d *File) WriteHeaderDumpFile(fileName string) (dumpName string, err error) {
	dumpName = fileName + ".hdr"
	f, err := os.Create(dumpName)
	if err != nil {
		return dumpName, err
	}
	if err := d.WriteHeaderDump(f, fileName); err != nil {
		f.Close()
		return dumpName, err
	}
	return dumpName, f.Close()
}

// Writes a plain-text summary of the DOQ header, one "KEY: value" per line, with
// UNDEFINED for missing entries and fixed five decimals for reals
func (d *File) WriteHeaderDump(w io.Writer, fileName string) error {
	bw := bufio.NewWriter(w)
	h := d.Header

	str := func(key string) {
		v, ok := h.Get(key)
		if !ok {
			v = "UNDEFINED"
		}
		fmt.Fprintf(bw, "%s: %s\n", key, v)
	}
	reals := func(key string, n int) {
		vs, err := h.Floats(key, n)
		if err != nil {
			vs = make([]float64, n)
		}
		parts := make([]string, n)
		for i, v := range vs {
			parts[i] = strconv.FormatFloat(v, 'f', 5, 64)
		}
		fmt.Fprintf(bw, "%s: %s\n", key, strings.Join(parts, " "))
	}
	ints := func(key string, n int) {
		vs, err := h.Ints(key, n)
		if err != nil {
			vs = make([]int64, n)
		}
		parts := make([]string, n)
		for i, v := range vs {
			parts[i] = strconv.FormatInt(v, 10)
		}
		fmt.Fprintf(bw, "%s: %s\n", key, strings.Join(parts, " "))
	}
	repeated := func(key string, n int) {
		vs := h.GetAll(key)
		for i := 0; i < n; i++ {
			v := "UNDEFINED"
			if i < len(vs) {
				v = vs[i]
			}
			fmt.Fprintf(bw, "%s: %s\n", key, v)
		}
	}

	fmt.Fprintf(bw, "FILENAME: %s\n", fileName)
	for _, key := range dumpStrings1 {
		str(key)
	}
	for _, key := range dumpLatLong {
		reals(key, 3)
	}
	for _, key := range dumpStrings2 {
		str(key)
	}
	repeated("BAND_CONTENT", 3)
	fmt.Fprintf(bw, "BITS_PER_PIXEL: %d\n", d.bitsPerPixel)
	fmt.Fprintf(bw, "SAMPLES_AND_LINES: %d %d\n", d.samples, d.lines)
	str("HORIZONTAL_DATUM")
	str("HORIZONTAL_COORDINATE_SYSTEM")
	ints("COORDINATE_ZONE", 1)
	str("HORIZONTAL_UNITS")
	reals("HORIZONTAL_RESOLUTION", 1)
	str("SECONDARY_HORIZONTAL_DATUM")
	reals("XY_ORIGIN", 2)
	reals("SECONDARY_XY_ORIGIN", 2)
	repeated("NATION", len(h.GetAll("NATION")))
	repeated("STATE", len(h.GetAll("STATE")))
	for _, key := range dumpCorners {
		reals(key, 2)
	}
	reals("RMSE_XY", 1)
	str("IMAGE_SOURCE")
	ids, dates := h.GetAll("SOURCE_IMAGE_ID"), h.GetAll("SOURCE_IMAGE_DATE")
	for i := range ids {
		fmt.Fprintf(bw, "SOURCE_IMAGE_ID: %s\n", ids[i])
		date := "UNDEFINED"
		if i < len(dates) {
			date = dates[i]
		}
		fmt.Fprintf(bw, "SOURCE_IMAGE_DATE: %s\n", date)
	}
	for _, key := range dumpStrings3 {
		str(key)
	}
	fmt.Fprintf(bw, "DATA_FILE_SIZE: %d\n", d.dataOffset+int64(d.lines)*int64(d.LineBytes()))
	fmt.Fprintf(bw, "BYTE_COUNT: %d\n", d.dataOffset)

	return bw.Flush()
}
