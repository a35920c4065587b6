package dataset

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/lox/tempcast/internal/ingest"
)

// makeTable builds a daily observation table starting 2020-01-01. The
// mutate hook lets tests blank out or rewrite individual cells.
func makeTable(t *testing.T, days int, mutate func(i int, row map[string]string)) *ingest.Table {
	t.Helper()
	table := &ingest.Table{Columns: []string{"date", "tmax", "tmin", "prcp"}}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		row := map[string]string{
			"date": start.AddDate(0, 0, i).Format("2006-01-02"),
			"tmax": fmt.Sprintf("%.1f", 70+10*math.Sin(float64(i)/30)),
			"tmin": fmt.Sprintf("%.1f", 50+10*math.Sin(float64(i)/30)),
			"prcp": "0.1",
		}
		if mutate != nil {
			mutate(i, row)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func TestBuildDerivesFeatures(t *testing.T) {
	series, _, _, err := Build(makeTable(t, 100, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	row := series.Rows[0]
	for _, f := range []string{"tmax", "tmin", "prcp", "dayofyear", "month", "week", "sin_day", "cos_day", "temp_range"} {
		if _, ok := row.Values[f]; !ok {
			t.Errorf("missing feature %q", f)
		}
	}

	if got := row.Values["dayofyear"]; got != 1 {
		t.Errorf("dayofyear = %v, want 1", got)
	}
	if got := row.Values["month"]; got != 1 {
		t.Errorf("month = %v, want 1", got)
	}
	wantRange := row.Values["tmax"] - row.Values["tmin"]
	if got := row.Values["temp_range"]; got != wantRange {
		t.Errorf("temp_range = %v, want %v", got, wantRange)
	}
	if row.Season != "winter" {
		t.Errorf("season = %q, want winter", row.Season)
	}
}

func TestBuildShiftsTargets(t *testing.T) {
	series, _, _, err := Build(makeTable(t, 10, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rows := series.Rows
	for i := 0; i < len(rows)-1; i++ {
		if rows[i].Values["target_tmax"] != rows[i+1].Values["tmax"] {
			t.Errorf("row %d target_tmax = %v, want next day's tmax %v",
				i, rows[i].Values["target_tmax"], rows[i+1].Values["tmax"])
		}
	}

	// The final row has no next day; it carries the prior targets.
	last, prev := rows[len(rows)-1], rows[len(rows)-2]
	if last.Values["target_tmax"] != prev.Values["target_tmax"] {
		t.Errorf("last target_tmax = %v, want %v", last.Values["target_tmax"], prev.Values["target_tmax"])
	}
}

func TestBuildDropsSparseColumns(t *testing.T) {
	// 6% nulls: dropped. 4% nulls would be kept and forward-filled.
	series, _, _, err := Build(makeTable(t, 100, func(i int, row map[string]string) {
		if i >= 10 && i < 16 {
			row["prcp"] = ""
		}
	}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := series.Rows[0].Values["prcp"]; ok {
		t.Error("prcp should have been dropped at 6% nulls")
	}
}

func TestBuildForwardFills(t *testing.T) {
	series, _, _, err := Build(makeTable(t, 100, func(i int, row map[string]string) {
		if i >= 10 && i < 14 {
			row["prcp"] = ""
		} else {
			row["prcp"] = fmt.Sprintf("%d", i)
		}
	}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := series.Rows[0].Values["prcp"]; !ok {
		t.Fatal("prcp should have been kept at 4% nulls")
	}
	// Rows 10..13 inherit row 9's value.
	for i := 10; i < 14; i++ {
		if got := series.Rows[i].Values["prcp"]; got != 9 {
			t.Errorf("row %d prcp = %v, want forward-filled 9", i, got)
		}
	}
}

func TestBuildSplitSizing(t *testing.T) {
	tests := []struct {
		days     int
		wantTest int
	}{
		{100, 20},
		{50, 10},
		{3000, 365}, // 20% would be 600; capped at one year
	}

	for _, tt := range tests {
		_, train, test, err := Build(makeTable(t, tt.days, nil))
		if err != nil {
			t.Fatalf("Build(%d days): %v", tt.days, err)
		}
		if len(test) != tt.wantTest {
			t.Errorf("%d days: test size = %d, want %d", tt.days, len(test), tt.wantTest)
		}
		if len(train)+len(test) != tt.days {
			t.Errorf("%d days: partitions sum to %d", tt.days, len(train)+len(test))
		}
		// Chronological: every train date precedes every test date.
		if len(train) > 0 && len(test) > 0 && !train[len(train)-1].Date.Before(test[0].Date) {
			t.Errorf("%d days: train overlaps test", tt.days)
		}
	}
}

func TestBuildFeatureSetExcludesTargets(t *testing.T) {
	series, _, _, err := Build(makeTable(t, 30, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, f := range series.Features {
		if f == "target_tmax" || f == "target_tmin" {
			t.Errorf("feature set leaks target column %q", f)
		}
	}
	// Sorted, so feature order is stable across runs.
	for i := 1; i < len(series.Features); i++ {
		if series.Features[i] < series.Features[i-1] {
			t.Errorf("features not sorted: %q before %q", series.Features[i-1], series.Features[i])
		}
	}
}

func TestBuildIgnoresIdentifierColumns(t *testing.T) {
	table := makeTable(t, 30, nil)
	table.Columns = append(table.Columns, "station")
	for _, row := range table.Rows {
		row["station"] = "USW00023183"
	}

	series, _, _, err := Build(table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, f := range series.Features {
		if f == "station" {
			t.Error("identifier column modeled as a feature")
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		table *ingest.Table
	}{
		{"nil table", nil},
		{"empty table", &ingest.Table{Columns: []string{"date", "tmax", "tmin"}}},
		{
			"missing date column",
			&ingest.Table{
				Columns: []string{"tmax", "tmin"},
				Rows:    []map[string]string{{"tmax": "70", "tmin": "50"}},
			},
		},
		{
			"duplicate dates",
			&ingest.Table{
				Columns: []string{"date", "tmax", "tmin"},
				Rows: []map[string]string{
					{"date": "2020-01-01", "tmax": "70", "tmin": "50"},
					{"date": "2020-01-01", "tmax": "71", "tmin": "51"},
				},
			},
		},
		{
			"missing tmax",
			&ingest.Table{
				Columns: []string{"date", "tmin"},
				Rows:    []map[string]string{{"date": "2020-01-01", "tmin": "50"}},
			},
		},
		{
			"unparsable date",
			&ingest.Table{
				Columns: []string{"date", "tmax", "tmin"},
				Rows:    []map[string]string{{"date": "January 1", "tmax": "70", "tmin": "50"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Build(tt.table)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var dataErr *DataError
			if !errors.As(err, &dataErr) {
				t.Errorf("error %v is not a DataError", err)
			}
		})
	}
}

func TestSeasonForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.December, "winter"},
		{time.February, "winter"},
		{time.March, "spring"},
		{time.July, "summer"},
		{time.October, "fall"},
	}
	for _, tt := range tests {
		if got := SeasonForMonth(tt.month); got != tt.want {
			t.Errorf("SeasonForMonth(%v) = %q, want %q", tt.month, got, tt.want)
		}
	}
}
