package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/lox/tempcast/internal/ingest"
)

// DataError reports a failure to load or prepare the observation table.
// It is fatal to a forecast run; no partial series is ever returned.
type DataError struct {
	Err error
}

func (e *DataError) Error() string { return "load data: " + e.Err.Error() }
func (e *DataError) Unwrap() error { return e.Err }

func dataErrorf(format string, args ...any) error {
	return &DataError{Err: fmt.Errorf(format, args...)}
}

// Row is one date's feature vector. Values holds every numeric column,
// including derived calendar features and the next-day targets. Season is
// kept separately: it is categorical and never fed to a model.
type Row struct {
	Date   time.Time
	Season string
	Values map[string]float64
}

// Clone returns a deep copy of the row. The forecast loop folds over
// cloned rows so the series itself is never mutated.
func (r Row) Clone() Row {
	values := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{Date: r.Date, Season: r.Season, Values: values}
}

// Vector extracts the model input in the given feature order.
func (r Row) Vector(features []string) []float64 {
	x := make([]float64, len(features))
	for i, f := range features {
		x[i] = r.Values[f]
	}
	return x
}

// Series is the cleaned, feature-augmented observation history, ordered by
// strictly increasing date.
type Series struct {
	Rows []Row

	// Features is the model input column set: numeric columns minus the
	// two targets and any identifier/categorical column, sorted by name
	// so feature order is stable across runs.
	Features []string
}

func (s *Series) Len() int { return len(s.Rows) }

const (
	// Columns with a null fraction at or above this are dropped entirely.
	maxNullFraction = 0.05

	// Test partition is capped at one year so evaluation cost stays
	// bounded on very long series.
	maxTestRows = 365

	testFraction = 0.2

	daysPerYear = 365.25
)

// identifierColumns are tolerated in the input but never modeled.
var identifierColumns = map[string]bool{"name": true, "station": true}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// Build turns a raw column-keyed table into a feature-augmented series and
// chronological train/test partitions. Any parsing or column problem is
// reported as a DataError.
func Build(table *ingest.Table) (series *Series, train, test []Row, err error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, nil, nil, dataErrorf("no rows in table")
	}

	hasDate := false
	for _, c := range table.Columns {
		if c == "date" {
			hasDate = true
		}
	}
	if !hasDate {
		return nil, nil, nil, dataErrorf("missing date column")
	}

	rows, numeric, err := parseRows(table)
	if err != nil {
		return nil, nil, nil, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.After(rows[i-1].Date) {
			return nil, nil, nil, dataErrorf("duplicate date %s", rows[i].Date.Format("2006-01-02"))
		}
	}

	numeric = dropSparseColumns(rows, numeric)
	forwardFill(rows, numeric)

	if !numeric["tmax"] || !numeric["tmin"] {
		return nil, nil, nil, dataErrorf("missing required columns tmax/tmin")
	}

	deriveCalendarFeatures(rows)
	for i := range rows {
		rows[i].Values["temp_range"] = rows[i].Values["tmax"] - rows[i].Values["tmin"]
	}
	attachTargets(rows)

	features := modelFeatures(rows[0])
	series = &Series{Rows: rows, Features: features}

	testSize := int(math.Round(testFraction * float64(len(rows))))
	if testSize > maxTestRows {
		testSize = maxTestRows
	}
	split := len(rows) - testSize
	return series, rows[:split], rows[split:], nil
}

// parseRows converts raw string cells into dated numeric rows. A column is
// numeric when every non-empty cell parses as a float; anything else is
// treated as an identifier column and excluded from the values map.
func parseRows(table *ingest.Table) ([]Row, map[string]bool, error) {
	numeric := make(map[string]bool)
	for _, col := range table.Columns {
		if col == "date" || identifierColumns[col] {
			continue
		}
		numeric[col] = true
		for _, raw := range table.Rows {
			cell := raw[col]
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[col] = false
				break
			}
		}
	}

	rows := make([]Row, 0, len(table.Rows))
	for i, raw := range table.Rows {
		date, err := parseDate(raw["date"])
		if err != nil {
			return nil, nil, dataErrorf("row %d: %v", i+1, err)
		}
		row := Row{Date: date, Values: make(map[string]float64)}
		for col, ok := range numeric {
			if !ok {
				continue
			}
			cell := raw[col]
			if cell == "" {
				row.Values[col] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, dataErrorf("row %d: column %s: %v", i+1, col, err)
			}
			row.Values[col] = v
		}
		rows = append(rows, row)
	}
	return rows, numeric, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// dropSparseColumns removes any column whose null fraction reaches 5%.
func dropSparseColumns(rows []Row, numeric map[string]bool) map[string]bool {
	n := float64(len(rows))
	for col, ok := range numeric {
		if !ok {
			continue
		}
		nulls := 0
		for i := range rows {
			if math.IsNaN(rows[i].Values[col]) {
				nulls++
			}
		}
		if float64(nulls)/n >= maxNullFraction {
			numeric[col] = false
			for i := range rows {
				delete(rows[i].Values, col)
			}
		}
	}
	return numeric
}

// forwardFill replaces each missing value with the most recent prior
// non-null value along the date axis. Leading nulls are left as-is: there
// is deliberately no interpolation and no backfill.
func forwardFill(rows []Row, numeric map[string]bool) {
	for col, ok := range numeric {
		if !ok {
			continue
		}
		last := math.NaN()
		for i := range rows {
			v := rows[i].Values[col]
			if math.IsNaN(v) {
				if !math.IsNaN(last) {
					rows[i].Values[col] = last
				}
				continue
			}
			last = v
		}
	}
}

func deriveCalendarFeatures(rows []Row) {
	for i := range rows {
		d := rows[i].Date
		yday := float64(d.YearDay())
		_, week := d.ISOWeek()

		rows[i].Values["dayofyear"] = yday
		rows[i].Values["month"] = float64(d.Month())
		rows[i].Values["week"] = float64(week)
		rows[i].Values["sin_day"] = math.Sin(2 * math.Pi * yday / daysPerYear)
		rows[i].Values["cos_day"] = math.Cos(2 * math.Pi * yday / daysPerYear)
		rows[i].Season = SeasonForMonth(d.Month())
	}
}

// attachTargets sets each row's next-day targets from the following row.
// The final row has no true next day, so it carries the prior row's
// targets forward instead of being dropped.
func attachTargets(rows []Row) {
	for i := range rows {
		if i+1 < len(rows) {
			rows[i].Values["target_tmax"] = rows[i+1].Values["tmax"]
			rows[i].Values["target_tmin"] = rows[i+1].Values["tmin"]
		} else if i > 0 {
			rows[i].Values["target_tmax"] = rows[i-1].Values["target_tmax"]
			rows[i].Values["target_tmin"] = rows[i-1].Values["target_tmin"]
		} else {
			rows[i].Values["target_tmax"] = math.NaN()
			rows[i].Values["target_tmin"] = math.NaN()
		}
	}
}

func modelFeatures(r Row) []string {
	features := make([]string, 0, len(r.Values))
	for col := range r.Values {
		if col == "target_tmax" || col == "target_tmin" {
			continue
		}
		features = append(features, col)
	}
	sort.Strings(features)
	return features
}

// SeasonForMonth maps a calendar month to its season label.
func SeasonForMonth(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}
