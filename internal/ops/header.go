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

	"github.com/mlnoga/doqlight/internal/doq"
)

// Prints the keyword header of a DOQ
type OpHeader struct {
	OpBase
	In string `json:"in"`
}

var _ Operator = (*OpHeader)(nil) // this type is an Operator
func init() { SetOperatorFactory(func() Operator { return NewOpHeaderDefault() }) } // register the operator for JSON decoding

func NewOpHeaderDefault() *OpHeader { return NewOpHeader("") }

func NewOpHeader(in string) *OpHeader {
	return &OpHeader{
		OpBase: OpBase{Type: "header", Active: true},
		In:     in,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpHeader) UnmarshalJSON(data []byte) error {
	type defaults OpHeader
	def := defaults(*NewOpHeaderDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpHeader(def)
	return nil
}

func (op *OpHeader) Paths() []string { return []string{op.In} }

// Writes the header summary to the context log
func (op *OpHeader) Apply(c *Context) error {
	if !op.Active {
		return nil
	}
	if op.In == "" {
		return errors.New("header needs an input file name")
	}
	d, err := doq.Open(op.In)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.WriteHeaderDump(c.Log, op.In)
}

// A header keyword with all its values, in file order
type HeaderEntry struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Returns the raw header entries in the order they appear in the file
func (op *OpHeader) Entries() ([]HeaderEntry, error) {
	if op.In == "" {
		return nil, errors.New("header needs an input file name")
	}
	d, err := doq.Open(op.In)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	es := make([]HeaderEntry, 0, len(d.Header.Keys))
	for _, k := range d.Header.Keys {
		es = append(es, HeaderEntry{Key: k, Values: d.Header.GetAll(k)})
	}
	return es, nil
}
