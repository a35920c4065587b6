package forecast

import (
	"time"

	"github.com/lox/tempcast/internal/dataset"
	"github.com/lox/tempcast/internal/models"
)

// historicalWindow caps the trailing observation context returned with a
// forecast.
const historicalWindow = 365

// Summarize derives the seasonal, extreme-day, and condition summaries
// from a generated forecast. Ties on extremes keep the earliest day. An
// empty sequence (a zero horizon is valid) yields empty summaries and
// zero-value extremes.
func Summarize(points []models.ForecastPoint) (map[string]models.SeasonStats, models.ExtremeDays, map[string]int) {
	if len(points) == 0 {
		return map[string]models.SeasonStats{}, models.ExtremeDays{}, map[string]int{}
	}

	type seasonAccum struct {
		count   int
		sumTmax float64
		sumTmin float64
	}
	seasons := make(map[string]*seasonAccum)
	conditions := make(map[string]int)

	hottest, coldest := 0, 0
	for i, p := range points {
		season := pointSeason(p)
		acc := seasons[season]
		if acc == nil {
			acc = &seasonAccum{}
			seasons[season] = acc
		}
		acc.count++
		acc.sumTmax += p.PredictedTmax
		acc.sumTmin += p.PredictedTmin

		conditions[p.WeatherCondition]++

		if p.PredictedTmax > points[hottest].PredictedTmax {
			hottest = i
		}
		if p.PredictedTmin < points[coldest].PredictedTmin {
			coldest = i
		}
	}

	summary := make(map[string]models.SeasonStats, len(seasons))
	for name, acc := range seasons {
		summary[name] = models.SeasonStats{
			Count:   acc.count,
			AvgTmax: acc.sumTmax / float64(acc.count),
			AvgTmin: acc.sumTmin / float64(acc.count),
		}
	}

	extremes := models.ExtremeDays{Hottest: points[hottest], Coldest: points[coldest]}
	return summary, extremes, conditions
}

func pointSeason(p models.ForecastPoint) string {
	t, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return dataset.SeasonForMonth(time.January)
	}
	return dataset.SeasonForMonth(t.Month())
}

// HistoricalContext returns the trailing window of observed max/min
// temperatures, at most a year.
func HistoricalContext(series *dataset.Series) models.HistoricalData {
	rows := series.Rows
	if len(rows) > historicalWindow {
		rows = rows[len(rows)-historicalWindow:]
	}

	data := models.HistoricalData{
		Dates: make([]string, len(rows)),
		Tmax:  make([]float64, len(rows)),
		Tmin:  make([]float64, len(rows)),
	}
	for i, r := range rows {
		data.Dates[i] = r.Date.Format("2006-01-02")
		data.Tmax[i] = r.Values["tmax"]
		data.Tmin[i] = r.Values["tmin"]
	}
	return data
}
