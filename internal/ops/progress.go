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
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var spinnerChars = []byte{'|', '/', '-', '\\'}

// Rotating progress indicator. Each tick overwrites the previous character
type Spinner struct {
	w     io.Writer
	ticks int
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Advances the spinner. Matches stretch.ProgressFunc
func (s *Spinner) Tick(y int) {
	buf := make([]byte, 0, 2)
	if s.ticks > 0 {
		buf = append(buf, '\b')
	}
	buf = append(buf, spinnerChars[s.ticks%len(spinnerChars)])
	s.w.Write(buf)
	s.ticks++
}

// Number of ticks so far
func (s *Spinner) Ticks() int { return s.ticks }

// Progress indicator for logs which are not a terminal, such as files or HTTP
// responses. Prints one dot per tick
type Dots struct {
	w     io.Writer
	ticks int
}

func NewDots(w io.Writer) *Dots {
	return &Dots{w: w}
}

// Matches stretch.ProgressFunc
func (d *Dots) Tick(y int) {
	d.w.Write([]byte{'.'})
	d.ticks++
}

func (d *Dots) Ticks() int { return d.ticks }

// Returns true if w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
