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
	"encoding/json"
	"fmt"
)

// How the in-band part of the lookup table ramps up
type RampMode int

const (
	// Ramp restarts at output 0 at the lower band limit, regardless of where the band begins.
	// Default, matches previously published stretched DOQs
	RampReference RampMode = iota
	// Ramp follows the linear function scale*(i-low) through the band
	RampLinear
)

func (m RampMode) String() string {
	switch m {
	case RampReference:
		return "reference"
	case RampLinear:
		return "linear"
	default:
		return fmt.Sprintf("RampMode(%d)", int(m))
	}
}

// Parses a ramp mode name as accepted on the command line and in JSON
func ParseRampMode(s string) (RampMode, error) {
	switch s {
	case "reference", "":
		return RampReference, nil
	case "linear":
		return RampLinear, nil
	}
	return RampReference, fmt.Errorf("unknown ramp mode '%s', expecting reference or linear", s)
}

func (m RampMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *RampMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRampMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Settings for a contrast stretch
type Options struct {
	Sigma            float64      `json:"sigma"`            // half width of the stretch band, in standard deviations
	Ramp             RampMode     `json:"ramp"`             // shape of the in-band ramp
	ProgressInterval int          `json:"progressInterval"` // scanlines between progress notifications, 0=never
	Progress         ProgressFunc `json:"-"`                // optional progress callback
}

func NewOptionsDefault() *Options {
	return &Options{
		Sigma:            2,
		Ramp:             RampReference,
		ProgressInterval: 128,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (o *Options) UnmarshalJSON(data []byte) error {
	type defaults Options
	def := defaults(*NewOptionsDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*o = Options(def)
	return nil
}

// Checks the settings for consistency
func (o *Options) Validate() error {
	if o.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %g", o.Sigma)
	}
	if o.ProgressInterval < 0 {
		return fmt.Errorf("progress interval must not be negative, got %d", o.ProgressInterval)
	}
	if o.Ramp != RampReference && o.Ramp != RampLinear {
		return fmt.Errorf("unknown ramp mode %v", o.Ramp)
	}
	return nil
}

// Invokes the progress callback if line y is on the configured cadence
func (o *Options) notify(y int) {
	if o.Progress != nil && o.ProgressInterval > 0 && y%o.ProgressInterval == 0 {
		o.Progress(y)
	}
}
