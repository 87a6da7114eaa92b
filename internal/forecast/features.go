package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	lagDays        = []int{1, 2, 3, 7, 14, 21, 28}
	rollingWindows = []int{3, 7, 14, 21, 30}
)

var featureColumns = buildFeatureColumns()

func buildFeatureColumns() []string {
	cols := []string{
		"day_of_week", "day_of_month", "week_of_year", "month", "quarter",
		"is_weekend", "is_month_start", "is_month_end",
	}
	for _, lag := range lagDays {
		cols = append(cols, fmt.Sprintf("lag_%d", lag))
	}
	for _, w := range rollingWindows {
		cols = append(cols,
			fmt.Sprintf("rolling_mean_%d", w),
			fmt.Sprintf("rolling_std_%d", w),
			fmt.Sprintf("rolling_max_%d", w),
			fmt.Sprintf("rolling_min_%d", w),
		)
	}
	return append(cols, "trend", "price_per_unit")
}

// FeatureColumns returns the model input columns in their fixed order. The
// order is part of a persisted artifact's schema: a stored model whose column
// list differs is stale and gets retrained.
func FeatureColumns() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// EngineerFeatures derives one feature row per series day: calendar fields,
// lagged quantities, rolling statistics, a monotonic trend index and a
// price-per-unit signal. Lag and rolling values before sufficient history are
// zero, never null; rolling statistics use all available rows when fewer than
// the window exist (minimum periods of one).
func EngineerFeatures(s Series) [][]float64 {
	q := s.Quantities()
	rows := make([][]float64, len(s.Points))

	for i, p := range s.Points {
		row := make([]float64, 0, len(featureColumns))

		dow := (int(p.Date.Weekday()) + 6) % 7 // Monday = 0
		_, isoWeek := p.Date.ISOWeek()
		month := int(p.Date.Month())

		row = append(row,
			float64(dow),
			float64(p.Date.Day()),
			float64(isoWeek),
			float64(month),
			float64((month-1)/3+1),
			boolFeature(dow == 5 || dow == 6),
			boolFeature(p.Date.Day() == 1),
			boolFeature(p.Date.AddDate(0, 0, 1).Day() == 1),
		)

		for _, lag := range lagDays {
			if i-lag >= 0 {
				row = append(row, q[i-lag])
			} else {
				row = append(row, 0)
			}
		}

		for _, w := range rollingWindows {
			lo := i - w + 1
			if lo < 0 {
				lo = 0
			}
			window := q[lo : i+1]
			row = append(row,
				stat.Mean(window, nil),
				sampleStd(window),
				floatsMax(window),
				floatsMin(window),
			)
		}

		ppu := p.Revenue / (p.Quantity + 1) // +1 guards division by zero
		row = append(row, float64(i), ppu)

		rows[i] = row
	}

	return rows
}

// MeanPricePerUnit averages the price-per-unit signal across the series. The
// forecast loop uses it to synthesize revenue for predicted days.
func MeanPricePerUnit(s Series) float64 {
	if s.Len() == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.Points {
		sum += p.Revenue / (p.Quantity + 1)
	}
	return sum / float64(s.Len())
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sampleStd is the n-1 standard deviation, zero for windows of one row.
func sampleStd(window []float64) float64 {
	if len(window) < 2 {
		return 0
	}
	sd := stat.StdDev(window, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

func floatsMax(window []float64) float64 {
	out := window[0]
	for _, v := range window[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func floatsMin(window []float64) float64 {
	out := window[0]
	for _, v := range window[1:] {
		if v < out {
			out = v
		}
	}
	return out
}
