package forecast

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/lox/tempcast/internal/dataset"
	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/regress"
)

const (
	// Confidence bounds are the point prediction ± 10% plus uniform
	// jitter in [0,1). They are illustrative, not calibrated intervals.
	confidenceFraction = 0.1

	// Fallback noise when a model errors mid-sequence: persistence of the
	// previous day's value plus Gaussian noise with this sigma.
	fallbackSigma = 2.0

	daysPerYear = 365.25
)

// Engine generates the day-by-day autoregressive forecast. Each step
// feeds its own predictions back as the next step's observed
// temperatures, so errors compound with horizon as expected.
type Engine struct {
	max      regress.Regressor
	min      regress.Regressor
	features []string
	rng      *rand.Rand
}

// NewEngine builds an engine around the two retained predictors. The
// seed fixes the jitter and fallback noise streams, so a given seed and
// input always produce the same forecast.
func NewEngine(max, min regress.Regressor, features []string, seed int64) *Engine {
	return &Engine{
		max:      max,
		min:      min,
		features: features,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Generate produces days sequential forecast points starting from start.
// The working row seeds from the latest observation dated at or before
// start, or the earliest row when start predates the whole series; the
// emitted dates always follow the requested start.
func (e *Engine) Generate(series *dataset.Series, days int, start time.Time) []models.ForecastPoint {
	if days <= 0 {
		return []models.ForecastPoint{}
	}
	working := seedRow(series, start)

	points := make([]models.ForecastPoint, 0, days)
	date := start
	for i := 0; i < days; i++ {
		var point models.ForecastPoint
		point, working = e.step(working, date)
		points = append(points, point)
		date = date.AddDate(0, 0, 1)
	}
	return points
}

// Resolve returns the first forecast date. An unset start means the day
// after the last observation.
func Resolve(series *dataset.Series, start *time.Time) time.Time {
	if start != nil {
		return *start
	}
	last := series.Rows[len(series.Rows)-1].Date
	return last.AddDate(0, 0, 1)
}

func seedRow(series *dataset.Series, start time.Time) dataset.Row {
	rows := series.Rows
	seed := rows[0]
	for _, r := range rows {
		if r.Date.After(start) {
			break
		}
		seed = r
	}
	return seed.Clone()
}

// step forecasts one date from the working row and returns the updated
// working row for the next step. Calendar features are recomputed for
// the forecast date before predicting, so the model always sees inputs
// consistent with the date it is forecasting.
func (e *Engine) step(working dataset.Row, date time.Time) (models.ForecastPoint, dataset.Row) {
	next := working.Clone()
	setCalendarFeatures(&next, date)

	x := next.Vector(e.features)
	tmax, errMax := e.max.Predict(x)
	tmin, errMin := e.min.Predict(x)
	if errMax != nil || errMin != nil {
		// One failed prediction invalidates the pair: substitute
		// persistence plus noise for both so the day stays coherent.
		if errMax != nil {
			log.Printf("forecast: step %s: tmax predict: %v", date.Format("2006-01-02"), errMax)
		}
		if errMin != nil {
			log.Printf("forecast: step %s: tmin predict: %v", date.Format("2006-01-02"), errMin)
		}
		tmax = working.Values["tmax"] + e.rng.NormFloat64()*fallbackSigma
		tmin = working.Values["tmin"] + e.rng.NormFloat64()*fallbackSigma
		metrics.StepFallbacks.Inc()
	}

	avg := (tmax + tmin) / 2
	point := models.ForecastPoint{
		Date:             date.Format("2006-01-02"),
		PredictedTmax:    tmax,
		PredictedTmin:    tmin,
		TempRange:        tmax - tmin,
		AvgTemp:          avg,
		WeatherCondition: ConditionForTemp(avg),
		TmaxInterval:     e.interval(tmax),
		TminInterval:     e.interval(tmin),
	}

	next.Values["tmax"] = tmax
	next.Values["tmin"] = tmin
	next.Values["temp_range"] = tmax - tmin
	next.Values["target_tmax"] = tmax
	next.Values["target_tmin"] = tmin
	return point, next
}

// interval draws its jitter in a fixed order (lower then upper) so the
// rng stream, and therefore the whole forecast, is reproducible.
func (e *Engine) interval(pred float64) models.Interval {
	margin := math.Abs(pred) * confidenceFraction
	lower := math.Max(0, pred-margin-e.rng.Float64())
	upper := pred + margin + e.rng.Float64()
	return models.Interval{Lower: lower, Upper: upper}
}

func setCalendarFeatures(r *dataset.Row, date time.Time) {
	r.Date = date
	yday := float64(date.YearDay())
	_, week := date.ISOWeek()

	r.Values["dayofyear"] = yday
	r.Values["month"] = float64(date.Month())
	r.Values["week"] = float64(week)
	r.Values["sin_day"] = math.Sin(2 * math.Pi * yday / daysPerYear)
	r.Values["cos_day"] = math.Cos(2 * math.Pi * yday / daysPerYear)
	r.Season = dataset.SeasonForMonth(date.Month())
}
