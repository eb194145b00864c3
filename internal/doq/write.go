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

// Writes a single band 8-bit DOQ with the given header entries and scanlines. Entries for
// SAMPLES_AND_LINES and BYTE_COUNT are derived from the data. The header is padded to a
// whole number of scanlines. Used for fixtures and round trips, not for production output
func Write(w io.Writer, h *Header, lines [][]byte) error {
	samples := 0
	if len(lines) > 0 {
		samples = len(lines[0])
	}
	for y, line := range lines {
		if len(line) != samples {
			return fmt.Errorf("scanline %d has %d samples, expected %d", y, len(line), samples)
		}
	}

	var records []string
	records = append(records, beginKeyword)
	for _, key := range h.Keys {
		if key == "SAMPLES_AND_LINES" || key == "BYTE_COUNT" {
			continue
		}
		for _, v := range h.Values[key] {
			records = append(records, key+" "+v)
		}
	}
	records = append(records, fmt.Sprintf("SAMPLES_AND_LINES %d %d", samples, len(lines)))

	headerLen := int64(len(records)+2) * RecordSize
	if samples > 0 && headerLen%int64(samples) != 0 {
		headerLen += int64(samples) - headerLen%int64(samples)
	}
	records = append(records, "BYTE_COUNT "+strconv.FormatInt(headerLen, 10))
	records = append(records, endKeyword)

	bw := bufio.NewWriter(w)
	written := int64(0)
	for _, rec := range records {
		if len(rec) > RecordSize-1 {
			return fmt.Errorf("header record too long: '%s'", rec)
		}
		n, err := bw.WriteString(rec + strings.Repeat(" ", RecordSize-1-len(rec)) + "\n")
		if err != nil {
			return err
		}
		written += int64(n)
	}
	if _, err := bw.Write(make([]byte, headerLen-written)); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Writes a DOQ file with the given name, see Write
func WriteFile(fileName string, h *Header, lines [][]byte) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := Write(f, h, lines); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
