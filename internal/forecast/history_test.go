package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/shopspring/decimal"
)

type scriptedSales struct {
	records []domain.DailySalesPoint
	err     error
}

func (s *scriptedSales) FetchDailySales(ctx context.Context, retailerID, productID int64, since time.Time) ([]domain.DailySalesPoint, error) {
	return s.records, s.err
}

func salesPoint(date string, qty int64, revenue float64) domain.DailySalesPoint {
	return domain.DailySalesPoint{
		Date:         day(date),
		QuantitySold: qty,
		Revenue:      decimal.NewFromFloat(revenue),
	}
}

func TestDailySeriesZeroFill(t *testing.T) {
	source := &scriptedSales{records: []domain.DailySalesPoint{
		salesPoint("2026-08-29", 3, 30),
		salesPoint("2026-08-31", 7, 70),
	}}
	accessor := NewHistoryAccessor(source)

	series, err := accessor.DailySeries(context.Background(), 1, 1, day("2026-08-31"), 90)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := series.Len(), 91; got != want {
		t.Fatalf("series length = %d, want %d", got, want)
	}
	if got := series.Points[0].Date; !got.Equal(day("2026-06-02")) {
		t.Errorf("first day = %s, want 2026-06-02", got.Format("2006-01-02"))
	}
	if got := series.Points[90].Date; !got.Equal(day("2026-08-31")) {
		t.Errorf("last day = %s, want 2026-08-31", got.Format("2006-01-02"))
	}

	// the two ledger days carry their values, everything else is zero
	if got := series.Points[90].Quantity; got != 7 {
		t.Errorf("2026-08-31 quantity = %v, want 7", got)
	}
	if got := series.Points[88].Quantity; got != 3 {
		t.Errorf("2026-08-29 quantity = %v, want 3", got)
	}
	if got := series.Points[89].Quantity; got != 0 {
		t.Errorf("gap day quantity = %v, want 0", got)
	}

	for i := 1; i < series.Len(); i++ {
		if !series.Points[i].Date.After(series.Points[i-1].Date) {
			t.Fatalf("series not strictly ascending at index %d", i)
		}
	}
}

func TestDailySeriesSumsDuplicateDays(t *testing.T) {
	source := &scriptedSales{records: []domain.DailySalesPoint{
		salesPoint("2026-08-30", 2, 20),
		salesPoint("2026-08-30", 5, 45),
	}}
	accessor := NewHistoryAccessor(source)

	series, err := accessor.DailySeries(context.Background(), 1, 1, day("2026-08-31"), 30)
	if err != nil {
		t.Fatal(err)
	}

	p := series.Points[series.Len()-2]
	if p.Quantity != 7 {
		t.Errorf("duplicate day quantity = %v, want 7", p.Quantity)
	}
	if p.Revenue != 65 {
		t.Errorf("duplicate day revenue = %v, want 65", p.Revenue)
	}
}

func TestDailySeriesObservedDays(t *testing.T) {
	today := day("2026-08-31")

	cases := []struct {
		name     string
		records  []domain.DailySalesPoint
		observed int
	}{
		{"no records", nil, 0},
		{"today only", []domain.DailySalesPoint{salesPoint("2026-08-31", 1, 5)}, 1},
		{"ten days ago", []domain.DailySalesPoint{salesPoint("2026-08-21", 1, 5)}, 11},
		{"thirteen days ago", []domain.DailySalesPoint{salesPoint("2026-08-18", 1, 5)}, 14},
		{"window start", []domain.DailySalesPoint{salesPoint("2026-06-02", 1, 5)}, 91},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			accessor := NewHistoryAccessor(&scriptedSales{records: tc.records})
			series, err := accessor.DailySeries(context.Background(), 1, 1, today, 90)
			if err != nil {
				t.Fatal(err)
			}
			if series.ObservedDays != tc.observed {
				t.Errorf("ObservedDays = %d, want %d", series.ObservedDays, tc.observed)
			}
		})
	}
}

func TestDailySeriesDropsOutOfWindowRecords(t *testing.T) {
	source := &scriptedSales{records: []domain.DailySalesPoint{
		salesPoint("2026-05-01", 9, 90), // before the window
		salesPoint("2026-09-05", 9, 90), // after today
	}}
	accessor := NewHistoryAccessor(source)

	series, err := accessor.DailySeries(context.Background(), 1, 1, day("2026-08-31"), 90)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range series.Points {
		if p.Quantity != 0 {
			t.Fatalf("out-of-window record leaked into series on %s", p.Date.Format("2006-01-02"))
		}
	}
	if series.ObservedDays != 0 {
		t.Errorf("ObservedDays = %d, want 0", series.ObservedDays)
	}
}

func TestDailySeriesPropagatesError(t *testing.T) {
	wantErr := errors.New("connection reset")
	accessor := NewHistoryAccessor(&scriptedSales{err: wantErr})

	_, err := accessor.DailySeries(context.Background(), 1, 1, day("2026-08-31"), 90)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}
