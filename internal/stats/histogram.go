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

package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Returns the intensity and the count of the histogram peak. Ties resolve to the lowest intensity
func GetPeak(bins []uint64) (x int, y uint64) {
	maxIndex, maxValue := -1, uint64(0)
	for i, v := range bins {
		if maxIndex < 0 || v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	return maxIndex, maxValue
}

// Calculates the mode and the standard deviation of the given intensity histogram by fitting
// a Gaussian to it, starting from the histogram peak
func GetModeStdDevFromHistogram(bins []uint64) (mode, stdDev float64, err error) {
	if len(bins) == 0 {
		return -1, -1, errors.New("empty histogram")
	}
	peak, peakVal := GetPeak(bins)
	if peakVal == 0 {
		return -1, -1, errors.New("histogram without samples")
	}

	// Initial guess: total count, the peak, and the spread of the whole histogram
	_, spread, total := Moments(bins)
	if spread < 1 {
		spread = 1
	}
	x0 := []float64{total, float64(peak), spread}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := x[0], x[1], math.Abs(x[2])+1e-6
			scaler := alpha / (sigma * math.Sqrt(2*math.Pi))
			sumSqDiff := 0.0
			for i, y := range bins {
				xmusig := (float64(i) - mu) / sigma
				yPredict := scaler * math.Exp(-0.5*xmusig*xmusig)
				diff := float64(y) - yPredict
				sumSqDiff += diff * diff
			}
			return math.Sqrt(sumSqDiff / float64(len(bins)))
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return -1, -1, err
	}
	return result.X[1], math.Abs(result.X[2]), nil
}

// Returns mean, population standard deviation and total count of the given histogram
func Moments(bins []uint64) (mean, stdDev, total float64) {
	sum := 0.0
	for i, y := range bins {
		total += float64(y)
		sum += float64(i) * float64(y)
	}
	if total == 0 {
		return 0, 0, 0
	}
	mean = sum / total
	sumSq := 0.0
	for i, y := range bins {
		diff := float64(i) - mean
		sumSq += diff * diff * float64(y)
	}
	return mean, math.Sqrt(sumSq / total), total
}
