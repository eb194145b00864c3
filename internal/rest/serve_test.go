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

package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/doqlight/internal/doq"
)

// Changes into a temporary directory holding a small DOQ named in.doq
func setupWorkDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	h := doq.NewHeader()
	h.Add("QUADRANGLE_NAME", "HOPKINSVILLE")
	h.Add("BAND_ORGANIZATION", "SINGLE FILE")
	h.Add("BITS_PER_PIXEL", "8")
	h.Add("HORIZONTAL_DATUM", "NAD83")
	h.Add("COORDINATE_ZONE", "16")
	h.Add("HORIZONTAL_RESOLUTION", "1.000")
	h.Add("XY_ORIGIN", "445120.000 4087340.000")
	h.Add("PRODUCTION_DATE", "1996 04 09")
	lines := make([][]byte, 16)
	for y := range lines {
		lines[y] = make([]byte, 24)
		for x := range lines[y] {
			lines[y][x] = uint8(x*5 + y)
		}
	}
	if err := doq.WriteFile("in.doq", h, lines); err != nil {
		t.Fatal(err)
	}
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter("doqlight test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("ping=%d %s; want 200 pong", w.Code, w.Body.String())
	}
}

func TestIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter("doqlight test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/") {
		t.Errorf("index=%d; want 200 with API calls", w.Code)
	}
}

func TestPostStretch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupWorkDir(t)
	r := NewRouter("doqlight test")

	w := post(t, r, "/api/v1/stretch", `{"in":"in.doq","out":"out.tif"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d; want 200: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/plain" {
		t.Errorf("content type=%q; want text/plain", got)
	}
	for _, want := range []string{"Arguments:", "\"sigma\": 2", "Done."} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("response lacks %q:\n%s", want, w.Body.String())
		}
	}
	if strings.ContainsRune(w.Body.String(), '\b') {
		t.Errorf("response contains terminal control characters:\n%q", w.Body.String())
	}
	if fi, err := os.Stat("out.tif"); err != nil || fi.Size() <= 24*16 {
		t.Errorf("output %v, %v; want a TIFF larger than the raw pixels", fi, err)
	}
}

func TestPostStretchErrorsAreStreamed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupWorkDir(t)
	r := NewRouter("doqlight test")

	w := post(t, r, "/api/v1/stretch", `{"in":"in.doq","out":"in.doq"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Error: input and output file names do not differ") {
		t.Errorf("status=%d body=%s; want streamed error", w.Code, w.Body.String())
	}
}

func TestPostRejectsUnsafePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter("doqlight test")
	for _, body := range []string{
		`{"in":"/etc/passwd","out":"out.tif"}`,
		`{"in":"../in.doq","out":"out.tif"}`,
		`{"in":"in.doq","out":"out.tif","jpg":"/tmp/out.jpg"}`,
	} {
		if w := post(t, r, "/api/v1/stretch", body); w.Code != http.StatusForbidden {
			t.Errorf("%s: status=%d; want %d", body, w.Code, http.StatusForbidden)
		}
	}
	if w := post(t, r, "/api/v1/header", `{"in":"/etc/passwd"}`); w.Code != http.StatusForbidden {
		t.Errorf("header status=%d; want %d", w.Code, http.StatusForbidden)
	}
}

func TestPostRejectsBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter("doqlight test")
	if w := post(t, r, "/api/v1/stats", `{"in":`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status=%d; want %d", w.Code, http.StatusBadRequest)
	}
	if w := post(t, r, "/api/v1/stats", `{"type":"stretch","in":"a.doq"}`); w.Code != http.StatusBadRequest {
		t.Errorf("mismatched type status=%d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPostStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupWorkDir(t)
	r := NewRouter("doqlight test")
	w := post(t, r, "/api/v1/stats", `{"in":"in.doq","options":{"sigma":1.5}}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "1.5 sigma range") {
		t.Errorf("status=%d body=%s; want stats with 1.5 sigma range", w.Code, w.Body.String())
	}
}

func TestPostHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupWorkDir(t)
	r := NewRouter("doqlight test")

	w := post(t, r, "/api/v1/header", `{"in":"in.doq"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d; want 200: %s", w.Code, w.Body.String())
	}
	var res struct {
		Entries []struct {
			Key    string   `json:"key"`
			Values []string `json:"values"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) == 0 || res.Entries[0].Key != "QUADRANGLE_NAME" || res.Entries[0].Values[0] != "HOPKINSVILLE" {
		t.Errorf("entries=%+v; want QUADRANGLE_NAME HOPKINSVILLE first", res.Entries)
	}

	if w := post(t, r, "/api/v1/header", `{"in":"missing.doq"}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing file status=%d; want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestIsPathAllowed(t *testing.T) {
	tcs := map[string]bool{
		"in.doq":        true,
		"data/in.doq":   true,
		"/data/in.doq":  false,
		"../in.doq":     false,
		"data/../x.doq": false,
	}
	for p, want := range tcs {
		if got := isPathAllowed(p); got != want {
			t.Errorf("isPathAllowed(%q)=%v; want %v", p, got, want)
		}
	}
}
