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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	nl "github.com/mlnoga/doqlight/internal"
	"github.com/mlnoga/doqlight/internal/ops"
	"github.com/mlnoga/doqlight/internal/rest"
	"github.com/mlnoga/doqlight/internal/stretch"
)

const version = "1.0.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var jpg = flag.String("jpg", "", "save 8bit preview of output as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var hdr = flag.Bool("hdr", false, "also write the DOQ header as plain text to <output>.hdr")

var datum = flag.String("datum", "primary", "georeference output with the `primary` or `secondary` datum of the DOQ header")
var sigma = flag.Float64("sigma", 2, "half width of the stretch band in standard deviations around the mean")
var ramp = flag.String("ramp", "reference", "ramp within the stretch band: reference=restart at black, linear=continuous")
var progress = flag.Int("progress", 128, "show progress every n scanlines, 0=never")
var previewWidth = flag.Int("previewWidth", 1024, "width of the JPEG preview in pixels")

var addr = flag.String("addr", ":8080", "listen on given address for the serve command")
var chroot = flag.String("chroot", "", "chroot to given directory for the serve command, requires root")
var setuid = flag.Int("setuid", -1, "change to given user id for the serve command, -1=don't")

func main() {
	logWriter := nl.LogWriter()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `doqlight Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (stretch|stats|header|serve|legal|version) args

Commands:
  stretch in.doq out.tif  Contrast-stretch a greyscale DOQ into a GeoTIFF
  stats   in.doq ...      Show statistics and stretch range of DOQs
  header  in.doq ...      Show DOQ keyword headers
  serve                   Serve the REST API
  legal                   Show license and attribution information
  version                 Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// Initialize logging to file in addition to stdout, if selected
	out := ""
	if args[0] == "stretch" && len(args) == 3 {
		out = args[2]
	}
	*log = autoName(*log, out, ".log")
	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s': %s\n", *log, err)
		}
	}
	*jpg = autoName(*jpg, out, ".jpg")

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	c := ops.NewContext(logWriter)
	c.Software = "doqlight " + version
	c.ProgressInterval = *progress
	c.Spinner = ops.IsTerminal(os.Stdout)

	var err error
	switch args[0] {
	case "stretch":
		err = cmdStretch(args[1:], c)

	case "stats":
		err = cmdEach(args[1:], c, func(in string) (ops.Operator, error) {
			op := ops.NewOpStats(in)
			opts, err := stretchOptions()
			op.Options = opts
			return op, err
		})

	case "header":
		err = cmdEach(args[1:], c, func(in string) (ops.Operator, error) { return ops.NewOpHeader(in), nil })

	case "serve":
		if err = rest.MakeSandbox(logWriter, *chroot, *setuid); err == nil {
			err = rest.Serve(*addr, c.Software)
		}

	case "legal":
		cmdLegal()

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()
		return

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	elapsed := time.Since(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		nl.LogFatalf("Error: %s\n", err.Error())
	}
	nl.LogSync()
}

// Resolves %auto file names by replacing the suffix of the output file
func autoName(name, out, suffix string) string {
	if name != "%auto" {
		return name
	}
	if out == "" {
		return ""
	}
	return strings.TrimSuffix(out, filepath.Ext(out)) + suffix
}

func stretchOptions() (stretch.Options, error) {
	opts := *stretch.NewOptionsDefault()
	opts.Sigma = *sigma
	opts.ProgressInterval = *progress
	mode, err := stretch.ParseRampMode(*ramp)
	if err != nil {
		return opts, err
	}
	opts.Ramp = mode
	return opts, opts.Validate()
}

func cmdStretch(args []string, c *ops.Context) error {
	if len(args) != 2 {
		return fmt.Errorf("stretch needs exactly one input and one output file, got %d arguments", len(args))
	}
	op := ops.NewOpStretch(args[0], args[1])
	op.JPG = *jpg
	op.PreviewWidth = *previewWidth
	op.Header = *hdr
	op.Datum = ops.Datum(*datum)
	opts, err := stretchOptions()
	if err != nil {
		return err
	}
	op.Options = opts

	if err := printSettings(c.Log, op); err != nil {
		return err
	}
	return op.Apply(c)
}

// Applies the operator built for each input file in turn, stopping at the first error
func cmdEach(args []string, c *ops.Context, newOp func(in string) (ops.Operator, error)) error {
	if len(args) == 0 {
		return fmt.Errorf("no input files")
	}
	for _, in := range args {
		op, err := newOp(in)
		if err != nil {
			return err
		}
		if err := op.Apply(c); err != nil {
			return err
		}
		fmt.Fprintln(c.Log)
	}
	return nil
}

func printSettings(logWriter io.Writer, op ops.Operator) error {
	m, err := json.MarshalIndent(op, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "\nRunning %s with these settings:\n%s\n", op.GetType(), string(m))
	return nil
}
