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

package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogAlsoToFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "test.log")
	if err := LogAlsoToFile(fileName); err != nil {
		t.Fatal(err)
	}
	LogPrintf("%d: %s\n", 1, "first")
	LogWriter().Write([]byte("second\n"))
	LogSync()
	if err := closeLogFile(); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(bs), "1: first\nsecond\n"; got != want {
		t.Errorf("log file %q; want %q", got, want)
	}
	LogPrintln("not in file")
	if bs, _ := os.ReadFile(fileName); strings.Contains(string(bs), "not in file") {
		t.Errorf("closed log file still written")
	}
}

func TestLogAlsoToFileError(t *testing.T) {
	if err := LogAlsoToFile(filepath.Join(t.TempDir(), "missing", "test.log")); err == nil {
		t.Errorf("log file in missing directory accepted")
	}
}
