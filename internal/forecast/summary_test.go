package forecast

import (
	"testing"

	"github.com/lox/tempcast/internal/models"
)

func point(date string, tmax, tmin float64) models.ForecastPoint {
	return models.ForecastPoint{
		Date:             date,
		PredictedTmax:    tmax,
		PredictedTmin:    tmin,
		AvgTemp:          (tmax + tmin) / 2,
		WeatherCondition: ConditionForTemp((tmax + tmin) / 2),
	}
}

func TestSummarizeSeasons(t *testing.T) {
	points := []models.ForecastPoint{
		point("2024-01-10", 40, 30), // winter
		point("2024-01-11", 44, 34), // winter
		point("2024-04-15", 70, 50), // spring
	}

	seasonal, _, _ := Summarize(points)

	winter, ok := seasonal["winter"]
	if !ok {
		t.Fatal("missing winter stats")
	}
	if winter.Count != 2 {
		t.Errorf("winter count = %d, want 2", winter.Count)
	}
	if winter.AvgTmax != 42 {
		t.Errorf("winter avg tmax = %v, want 42", winter.AvgTmax)
	}
	if winter.AvgTmin != 32 {
		t.Errorf("winter avg tmin = %v, want 32", winter.AvgTmin)
	}

	if spring := seasonal["spring"]; spring.Count != 1 {
		t.Errorf("spring count = %d, want 1", spring.Count)
	}
}

func TestSummarizeExtremesFirstWins(t *testing.T) {
	points := []models.ForecastPoint{
		point("2024-06-01", 90, 60),
		point("2024-06-02", 95, 55),
		point("2024-06-03", 95, 55), // ties lose to the earlier day
	}

	_, extremes, _ := Summarize(points)

	if extremes.Hottest.Date != "2024-06-02" {
		t.Errorf("hottest = %s, want 2024-06-02", extremes.Hottest.Date)
	}
	if extremes.Coldest.Date != "2024-06-02" {
		t.Errorf("coldest = %s, want 2024-06-02", extremes.Coldest.Date)
	}
}

func TestSummarizeConditionCounts(t *testing.T) {
	points := []models.ForecastPoint{
		point("2024-06-01", 80, 60),  // avg 70, mild
		point("2024-06-02", 82, 60),  // avg 71, mild
		point("2024-06-03", 110, 86), // avg 98, very_hot
	}

	_, _, counts := Summarize(points)

	if counts["mild"] != 2 {
		t.Errorf("mild count = %d, want 2", counts["mild"])
	}
	if counts["very_hot"] != 1 {
		t.Errorf("very_hot count = %d, want 1", counts["very_hot"])
	}
}

func TestSummarizeEmptySequence(t *testing.T) {
	seasonal, extremes, counts := Summarize(nil)

	if len(seasonal) != 0 {
		t.Errorf("seasonal summary = %v, want empty", seasonal)
	}
	if len(counts) != 0 {
		t.Errorf("condition counts = %v, want empty", counts)
	}
	if extremes.Hottest.Date != "" || extremes.Coldest.Date != "" {
		t.Errorf("extremes not zero-valued: %+v", extremes)
	}
}

func TestHistoricalContextWindow(t *testing.T) {
	series := makeSeries(t, 400)

	data := HistoricalContext(series)
	if len(data.Dates) != 365 {
		t.Fatalf("got %d dates, want 365", len(data.Dates))
	}
	if len(data.Tmax) != 365 || len(data.Tmin) != 365 {
		t.Fatalf("temperature slices not windowed: %d/%d", len(data.Tmax), len(data.Tmin))
	}
	if data.Dates[len(data.Dates)-1] != "2023-12-31" {
		t.Errorf("last date = %s, want 2023-12-31", data.Dates[len(data.Dates)-1])
	}

	short := HistoricalContext(makeSeries(t, 50))
	if len(short.Dates) != 50 {
		t.Errorf("short series window = %d, want 50", len(short.Dates))
	}
}
