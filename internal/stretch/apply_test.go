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

package stretch

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/valyala/fastrand"
)

func identityLUT() *LUT {
	lut := &LUT{}
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}

func TestApplyRemapsEverySample(t *testing.T) {
	rng := fastrand.RNG{}
	src := randomRaster(&rng, 17, 9, 0, 256)
	lut := &LUT{}
	for i := range lut {
		lut[i] = uint8(255 - i)
	}
	dst := NewMemRaster(17, 9)
	if err := Apply(src, dst, lut, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Next != 9 {
		t.Errorf("lines written=%d; want 9", dst.Next)
	}
	for i, v := range src.Data {
		if dst.Data[i] != 255-v {
			t.Errorf("dst[%d]=%d; want %d", i, dst.Data[i], 255-v)
		}
	}
}

func TestApplyLeavesSourceIntact(t *testing.T) {
	src := NewMemRasterFromData(3, 1, []byte{1, 2, 3})
	lut := &LUT{}
	if err := Apply(src, NewMemRaster(3, 1), lut, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(src.Data, []byte{1, 2, 3}) {
		t.Errorf("source modified to %v", src.Data)
	}
}

type failingSink struct {
	failAt  int
	written []int
}

func (f *failingSink) WriteScanline(y int, line []byte) error {
	if y == f.failAt {
		return errors.New("disk full")
	}
	f.written = append(f.written, y)
	return nil
}

func TestApplyAbortsOnWriteFailure(t *testing.T) {
	sink := &failingSink{failAt: 3}
	err := Apply(NewMemRaster(4, 8), sink, identityLUT(), nil)
	if !errors.Is(err, ErrSinkWrite) {
		t.Fatalf("err=%v; want %v", err, ErrSinkWrite)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err=%q does not carry the cause", err.Error())
	}
	if len(sink.written) != 3 {
		t.Errorf("lines written before failure=%v; want [0 1 2]", sink.written)
	}
}

func TestApplyAbortsOnReadFailure(t *testing.T) {
	src := &failingSource{MemRaster: NewMemRaster(4, 8), failAt: 5}
	sink := &failingSink{failAt: -1}
	err := Apply(src, sink, identityLUT(), nil)
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("err=%v; want %v", err, ErrSourceRead)
	}
	if len(sink.written) != 5 {
		t.Errorf("lines written before failure=%v; want 5 lines", sink.written)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := NewMemRaster(2, 2), NewMemRaster(2, 2)
	src := NewMemRasterFromData(2, 2, []byte{1, 2, 3, 4})
	if err := Apply(src, MultiSink(a, b), identityLUT(), nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Data, src.Data) || !bytes.Equal(b.Data, src.Data) {
		t.Errorf("a=%v b=%v; want %v", a.Data, b.Data, src.Data)
	}

	err := MultiSink(NewMemRaster(2, 2), &failingSink{failAt: 0}).WriteScanline(0, []byte{1, 2})
	if err == nil {
		t.Errorf("MultiSink swallowed write error")
	}
}

func TestMemRasterRejectsOutOfOrderWrites(t *testing.T) {
	m := NewMemRaster(2, 3)
	if err := m.WriteScanline(1, []byte{0, 0}); err == nil {
		t.Errorf("out of order write succeeded")
	}
	if err := m.WriteScanline(0, []byte{0}); err == nil {
		t.Errorf("short write succeeded")
	}
	if _, err := m.ReadScanline(3); err == nil {
		t.Errorf("read past the end succeeded")
	}
}
