// Package forecast turns an observation series into a day-by-day
// temperature forecast: it trains the candidate models, folds the best
// pair through the autoregressive loop, and derives the summaries the
// dashboard renders.
package forecast

import (
	"log"
	"time"

	"github.com/lox/tempcast/internal/dataset"
	"github.com/lox/tempcast/internal/ingest"
	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/train"
)

// RunConfig describes one full forecast run.
type RunConfig struct {
	// Source is a CSV file path or http(s) URL.
	Source string

	Days int

	// StartDate optionally overrides the first forecast date
	// (YYYY-MM-DD). Unparsable values are logged and ignored.
	StartDate string

	Seed       int64
	MaxSamples int

	LearningCurve bool
	RefitCurve    bool
}

// RunResult is the complete output of a run, plus the metadata the run
// history store records.
type RunResult struct {
	Models   models.ModelInfo
	Forecast models.Bundle

	StartDate string
	Rows      int
	Duration  time.Duration
}

// Run executes a complete forecast: load, prepare, train, generate,
// summarize. Data and training failures abort the run; a bad start date
// does not.
func Run(cfg RunConfig) (*RunResult, error) {
	began := time.Now()

	table, err := ingest.Load(cfg.Source)
	if err != nil {
		metrics.DataLoadFailures.Inc()
		return nil, err
	}

	series, trainRows, testRows, err := dataset.Build(table)
	if err != nil {
		metrics.DataLoadFailures.Inc()
		return nil, err
	}
	log.Printf("forecast: loaded %d rows, %d features, %d train / %d test",
		series.Len(), len(series.Features), len(trainRows), len(testRows))

	trainBegan := time.Now()
	result, err := train.Train(trainRows, testRows, series.Features, train.Config{
		Seed:          cfg.Seed,
		MaxSamples:    cfg.MaxSamples,
		LearningCurve: cfg.LearningCurve,
		RefitCurve:    cfg.RefitCurve,
	})
	if err != nil {
		return nil, err
	}
	metrics.TrainingDuration.Observe(time.Since(trainBegan).Seconds())
	log.Printf("forecast: best models %s (tmax, rmse %.2f) / %s (tmin, rmse %.2f)",
		result.Max.Name, result.Max.Metrics.TestRMSE,
		result.Min.Name, result.Min.Metrics.TestRMSE)

	start := Resolve(series, parseStart(cfg.StartDate))

	genBegan := time.Now()
	engine := NewEngine(result.Max.Model, result.Min.Model, result.Features, cfg.Seed)
	points := engine.Generate(series, cfg.Days, start)
	metrics.GenerationDuration.Observe(time.Since(genBegan).Seconds())

	seasonal, extremes, conditions := Summarize(points)

	return &RunResult{
		Models: result.Info(),
		Forecast: models.Bundle{
			DailyForecast:   points,
			HistoricalData:  HistoricalContext(series),
			SeasonalSummary: seasonal,
			ExtremeDays:     extremes,
			ConditionCounts: conditions,
		},
		StartDate: start.Format("2006-01-02"),
		Rows:      series.Len(),
		Duration:  time.Since(began),
	}, nil
}

func parseStart(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Printf("forecast: ignoring unparsable start date %q", s)
		return nil
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}
