package forecast

import (
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func col(t *testing.T, name string) int {
	t.Helper()
	for i, c := range FeatureColumns() {
		if c == name {
			return i
		}
	}
	t.Fatalf("unknown feature column %q", name)
	return -1
}

func constantSeries(start string, days int, qty, revenue float64) Series {
	points := make([]Point, days)
	d := day(start)
	for i := range points {
		points[i] = Point{Date: d.AddDate(0, 0, i), Quantity: qty, Revenue: revenue}
	}
	return Series{Points: points, ObservedDays: days}
}

func TestFeatureColumns(t *testing.T) {
	cols := FeatureColumns()
	if got, want := len(cols), 37; got != want {
		t.Fatalf("len(FeatureColumns()) = %d, want %d", got, want)
	}
	if cols[0] != "day_of_week" {
		t.Errorf("first column = %q, want day_of_week", cols[0])
	}
	if cols[len(cols)-1] != "price_per_unit" {
		t.Errorf("last column = %q, want price_per_unit", cols[len(cols)-1])
	}

	// callers must not be able to mutate the schema
	cols[0] = "mutated"
	if FeatureColumns()[0] != "day_of_week" {
		t.Error("FeatureColumns() returned shared backing array")
	}
}

func TestEngineerFeaturesCalendar(t *testing.T) {
	cases := []struct {
		date         string
		dow          float64
		isWeekend    float64
		isMonthStart float64
		isMonthEnd   float64
		quarter      float64
	}{
		{"2026-03-02", 0, 0, 0, 0, 1}, // Monday
		{"2026-03-07", 5, 1, 0, 0, 1}, // Saturday
		{"2026-03-08", 6, 1, 0, 0, 1}, // Sunday
		{"2026-03-01", 6, 1, 1, 0, 1},
		{"2026-02-28", 5, 1, 0, 1, 1}, // non-leap February
		{"2026-10-31", 5, 1, 0, 1, 4},
	}

	for _, tc := range cases {
		s := Series{Points: []Point{{Date: day(tc.date)}}}
		row := EngineerFeatures(s)[0]

		if got := row[col(t, "day_of_week")]; got != tc.dow {
			t.Errorf("%s: day_of_week = %v, want %v", tc.date, got, tc.dow)
		}
		if got := row[col(t, "is_weekend")]; got != tc.isWeekend {
			t.Errorf("%s: is_weekend = %v, want %v", tc.date, got, tc.isWeekend)
		}
		if got := row[col(t, "is_month_start")]; got != tc.isMonthStart {
			t.Errorf("%s: is_month_start = %v, want %v", tc.date, got, tc.isMonthStart)
		}
		if got := row[col(t, "is_month_end")]; got != tc.isMonthEnd {
			t.Errorf("%s: is_month_end = %v, want %v", tc.date, got, tc.isMonthEnd)
		}
		if got := row[col(t, "quarter")]; got != tc.quarter {
			t.Errorf("%s: quarter = %v, want %v", tc.date, got, tc.quarter)
		}
	}
}

func TestEngineerFeaturesLags(t *testing.T) {
	points := make([]Point, 30)
	d := day("2026-01-01")
	for i := range points {
		points[i] = Point{Date: d.AddDate(0, 0, i), Quantity: float64(i + 1)}
	}
	rows := EngineerFeatures(Series{Points: points})

	lag1 := col(t, "lag_1")
	lag7 := col(t, "lag_7")
	lag28 := col(t, "lag_28")

	// before enough history a lag is zero, never null
	if got := rows[0][lag1]; got != 0 {
		t.Errorf("row 0 lag_1 = %v, want 0", got)
	}
	if got := rows[6][lag7]; got != 0 {
		t.Errorf("row 6 lag_7 = %v, want 0", got)
	}

	if got := rows[10][lag1]; got != 10 {
		t.Errorf("row 10 lag_1 = %v, want 10", got)
	}
	if got := rows[10][lag7]; got != 4 {
		t.Errorf("row 10 lag_7 = %v, want 4", got)
	}
	if got := rows[29][lag28]; got != 2 {
		t.Errorf("row 29 lag_28 = %v, want 2", got)
	}
}

func TestEngineerFeaturesRolling(t *testing.T) {
	s := constantSeries("2026-01-01", 40, 5, 50)
	rows := EngineerFeatures(s)

	mean7 := col(t, "rolling_mean_7")
	std7 := col(t, "rolling_std_7")
	max30 := col(t, "rolling_max_30")
	min30 := col(t, "rolling_min_30")

	// minimum periods of one: the first row uses a window of itself
	if got := rows[0][mean7]; got != 5 {
		t.Errorf("row 0 rolling_mean_7 = %v, want 5", got)
	}
	if got := rows[0][std7]; got != 0 {
		t.Errorf("row 0 rolling_std_7 = %v, want 0", got)
	}

	for _, i := range []int{3, 15, 39} {
		if got := rows[i][mean7]; got != 5 {
			t.Errorf("row %d rolling_mean_7 = %v, want 5", i, got)
		}
		if got := rows[i][std7]; got != 0 {
			t.Errorf("row %d rolling_std_7 = %v, want 0", i, got)
		}
		if got := rows[i][max30]; got != 5 {
			t.Errorf("row %d rolling_max_30 = %v, want 5", i, got)
		}
		if got := rows[i][min30]; got != 5 {
			t.Errorf("row %d rolling_min_30 = %v, want 5", i, got)
		}
	}
}

func TestEngineerFeaturesZeroSeries(t *testing.T) {
	s := constantSeries("2026-06-02", 91, 0, 0)
	rows := EngineerFeatures(s)

	lagStart := col(t, "lag_1")
	ppu := col(t, "price_per_unit")
	trend := col(t, "trend")

	// every lag, rolling statistic and price signal is zero, never NaN
	for i, row := range rows {
		for j := lagStart; j < len(row); j++ {
			if j == trend {
				continue
			}
			if row[j] != 0 {
				t.Fatalf("row %d col %s = %v, want 0", i, FeatureColumns()[j], row[j])
			}
		}
		if row[ppu] != 0 {
			t.Fatalf("row %d price_per_unit = %v, want 0", i, row[ppu])
		}
	}
}

func TestEngineerFeaturesRollingStd(t *testing.T) {
	points := []Point{
		{Date: day("2026-01-01"), Quantity: 2},
		{Date: day("2026-01-02"), Quantity: 4},
		{Date: day("2026-01-03"), Quantity: 6},
	}
	rows := EngineerFeatures(Series{Points: points})

	// sample (n-1) standard deviation of {2,4,6} is 2
	if got := rows[2][col(t, "rolling_std_3")]; math.Abs(got-2) > 1e-12 {
		t.Errorf("rolling_std_3 = %v, want 2", got)
	}
	if got := rows[2][col(t, "rolling_max_3")]; got != 6 {
		t.Errorf("rolling_max_3 = %v, want 6", got)
	}
	if got := rows[2][col(t, "rolling_min_3")]; got != 2 {
		t.Errorf("rolling_min_3 = %v, want 2", got)
	}
}

func TestEngineerFeaturesTrendAndPrice(t *testing.T) {
	s := constantSeries("2026-01-01", 10, 5, 50)
	rows := EngineerFeatures(s)

	trend := col(t, "trend")
	ppu := col(t, "price_per_unit")

	for i, row := range rows {
		if got := row[trend]; got != float64(i) {
			t.Errorf("row %d trend = %v, want %d", i, got, i)
		}
		if got, want := row[ppu], 50.0/6.0; math.Abs(got-want) > 1e-12 {
			t.Errorf("row %d price_per_unit = %v, want %v", i, got, want)
		}
	}
}

func TestMeanPricePerUnit(t *testing.T) {
	if got := MeanPricePerUnit(Series{}); got != 0 {
		t.Errorf("empty series mean ppu = %v, want 0", got)
	}

	// all-zero days contribute zero, not NaN
	if got := MeanPricePerUnit(constantSeries("2026-01-01", 5, 0, 0)); got != 0 {
		t.Errorf("zero series mean ppu = %v, want 0", got)
	}

	got := MeanPricePerUnit(constantSeries("2026-01-01", 8, 5, 50))
	if want := 50.0 / 6.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("mean ppu = %v, want %v", got, want)
	}
}
