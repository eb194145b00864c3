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
	"fmt"
	"io"

	"github.com/pbnjay/memory"
)

// An execution context for operators
type Context struct {
	Log              io.Writer
	MemoryMB         int    // memory.TotalMemory()/1024/1024
	ProgressInterval int    // scanlines between progress ticks, 0 keeps the operator's setting
	Software         string // written into the TIFF software tag
	Spinner          bool   // rotating progress indicator instead of dots, for terminals
}

func NewContext(log io.Writer) *Context {
	return &Context{
		Log:      log,
		MemoryMB: int(memory.TotalMemory() / 1024 / 1024),
		Software: "doqlight",
		Spinner:  IsTerminal(log),
	}
}

// Logs the raster size against physical memory. Rasters are streamed one scanline
// at a time, so large files only cost I/O, not memory
func (c *Context) logRasterSize(samples, lines int) {
	mb := (int64(samples)*int64(lines) + 1024*1024 - 1) / (1024 * 1024)
	if c.MemoryMB > 0 && mb > int64(c.MemoryMB) {
		fmt.Fprintf(c.Log, "Raster of %d MiB exceeds %d MiB of physical memory, streaming scanlines\n", mb, c.MemoryMB)
	} else {
		fmt.Fprintf(c.Log, "Raster of %d MiB, %d MiB of physical memory\n", mb, c.MemoryMB)
	}
}
