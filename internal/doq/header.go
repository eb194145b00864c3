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
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Size of a keyword header record in bytes, including the trailing newline
const RecordSize = 80

const (
	beginKeyword = "BEGIN_USGS_DOQ_HEADER"
	endKeyword   = "END_USGS_HEADER"
)

var reRecord = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_]*)\s*(.*?)\s*$`) // KEYWORD value...
var reToken = regexp.MustCompile(`"[^"]*"|\S+`)                        // quoted string or word

// A DOQ keyword header. Keywords may repeat, e.g. STATE or BAND_CONTENT,
// in which case all occurrences are kept in order
type Header struct {
	Keys   []string            // distinct keywords in order of first appearance
	Values map[string][]string // raw values per keyword, as written
	Length int64               // bytes consumed up to and including the END record
}

func NewHeader() *Header {
	return &Header{Values: map[string][]string{}}
}

// Adds a value for the given keyword
func (h *Header) Add(key, value string) {
	if _, ok := h.Values[key]; !ok {
		h.Keys = append(h.Keys, key)
	}
	h.Values[key] = append(h.Values[key], value)
}

// Reads records up to and including the END record
func ReadHeader(r io.Reader) (*Header, error) {
	h := NewHeader()
	br := bufio.NewReader(r)
	buf := make([]byte, RecordSize)
	for recNo := 0; ; recNo++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("record %d: %w", recNo, err)
		}
		h.Length += RecordSize
		line := string(bytes.TrimRight(buf, "\x00\n\r "))
		if recNo == 0 {
			if strings.TrimSpace(line) != beginKeyword {
				return nil, fmt.Errorf("not a DOQ keyword header, first record is '%s'", line)
			}
			continue
		}
		sub := reRecord.FindStringSubmatch(line)
		if sub == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("record %d: cannot parse '%s'", recNo, line)
		}
		if sub[1] == endKeyword {
			return h, nil
		}
		h.Add(sub[1], sub[2])
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// Returns the first value for the keyword, with surrounding quotes removed
func (h *Header) Get(key string) (string, bool) {
	vs := h.Values[key]
	if len(vs) == 0 {
		return "", false
	}
	return unquote(vs[0]), true
}

// Returns all values for the keyword, with surrounding quotes removed
func (h *Header) GetAll(key string) []string {
	vs := h.Values[key]
	if vs == nil {
		return nil
	}
	res := make([]string, len(vs))
	for i, v := range vs {
		res[i] = unquote(v)
	}
	return res
}

// Splits the first value for the keyword into whitespace separated tokens,
// keeping quoted strings together
func (h *Header) Tokens(key string) []string {
	vs := h.Values[key]
	if len(vs) == 0 {
		return nil
	}
	toks := reToken.FindAllString(vs[0], -1)
	for i, t := range toks {
		toks[i] = unquote(t)
	}
	return toks
}

// Parses the first value for the keyword as n integers
func (h *Header) Ints(key string, n int) ([]int64, error) {
	toks := h.Tokens(key)
	if len(toks) < n {
		return nil, fmt.Errorf("header keyword %s has %d values, expected %d", key, len(toks), n)
	}
	res := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseInt(toks[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("header keyword %s: %w", key, err)
		}
		res[i] = v
	}
	return res, nil
}

// Parses the first value for the keyword as n reals. Accepts Fortran style D exponents
func (h *Header) Floats(key string, n int) ([]float64, error) {
	toks := h.Tokens(key)
	if len(toks) < n {
		return nil, fmt.Errorf("header keyword %s has %d values, expected %d", key, len(toks), n)
	}
	res := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(toks[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("header keyword %s: %w", key, err)
		}
		res[i] = v
	}
	return res, nil
}

// Parses the first value for the keyword as a single integer
func (h *Header) Int(key string) (int64, error) {
	vs, err := h.Ints(key, 1)
	if err != nil {
		return 0, err
	}
	return vs[0], nil
}

// Parses the first value for the keyword as a single real
func (h *Header) Float(key string) (float64, error) {
	vs, err := h.Floats(key, 1)
	if err != nil {
		return 0, err
	}
	return vs[0], nil
}
