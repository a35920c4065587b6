package models

// Interval is a lower/upper confidence band around a point prediction.
// The bounds carry independent jitter, so the interval is illustrative
// rather than calibrated; see the forecast package.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastPoint is one generated day of the autoregressive forecast.
// Dates are YYYY-MM-DD strings, the format the dashboard consumes.
type ForecastPoint struct {
	Date             string   `json:"date"`
	PredictedTmax    float64  `json:"predicted_tmax"`
	PredictedTmin    float64  `json:"predicted_tmin"`
	TempRange        float64  `json:"temp_range"`
	AvgTemp          float64  `json:"avg_temp"`
	WeatherCondition string   `json:"weather_condition"`
	TmaxInterval     Interval `json:"tmax_confidence_interval"`
	TminInterval     Interval `json:"tmin_confidence_interval"`
}

// HistoricalData is the trailing window of observed max/min temperatures
// returned alongside a forecast for seasonal comparison.
type HistoricalData struct {
	Dates []string  `json:"dates"`
	Tmax  []float64 `json:"tmax"`
	Tmin  []float64 `json:"tmin"`
}

// SeasonStats aggregates the forecast points that fall in one season.
type SeasonStats struct {
	Count   int     `json:"count"`
	AvgTmax float64 `json:"avg_tmax"`
	AvgTmin float64 `json:"avg_tmin"`
}

// ExtremeDays marks the single hottest and coldest forecast points.
type ExtremeDays struct {
	Hottest ForecastPoint `json:"hottest"`
	Coldest ForecastPoint `json:"coldest"`
}

// Bundle is the complete forecast output package: the daily sequence plus
// historical context and derived summaries.
type Bundle struct {
	DailyForecast   []ForecastPoint        `json:"daily_forecast"`
	HistoricalData  HistoricalData         `json:"historical_data"`
	SeasonalSummary map[string]SeasonStats `json:"seasonal_summary"`
	ExtremeDays     ExtremeDays            `json:"extreme_days"`
	ConditionCounts map[string]int         `json:"condition_counts"`
}

// MetricSet holds the evaluation metrics for one fitted model.
type MetricSet struct {
	TrainRMSE float64 `json:"train_rmse"`
	TestRMSE  float64 `json:"test_rmse"`
	TrainMAE  float64 `json:"train_mae"`
	TestMAE   float64 `json:"test_mae"`
	TrainR2   float64 `json:"train_r2"`
	TestR2    float64 `json:"test_r2"`
}

// ComparisonRow is one line of the per-model comparison table.
type ComparisonRow struct {
	Model     string  `json:"model"`
	TrainRMSE float64 `json:"train_rmse"`
	TestRMSE  float64 `json:"test_rmse"`
	R2Score   float64 `json:"r2_score"`
}

// FeatureImportance pairs a feature name with its learned weight.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// LearningCurve reports test R² at increasing training-sample fractions.
type LearningCurve struct {
	TrainSizes []float64 `json:"train_sizes"`
	R2Scores   []float64 `json:"r2_scores"`
}

// ModelInfo is the model metadata section of a forecast response.
type ModelInfo struct {
	BestModelMax         string              `json:"best_model_max"`
	BestModelMin         string              `json:"best_model_min"`
	ModelComparisonMax   []ComparisonRow     `json:"model_comparison_max"`
	ModelComparisonMin   []ComparisonRow     `json:"model_comparison_min"`
	FeatureImportanceMax []FeatureImportance `json:"feature_importance_max,omitempty"`
	FeatureImportanceMin []FeatureImportance `json:"feature_importance_min,omitempty"`
	MetricsMax           MetricSet           `json:"metrics_max"`
	MetricsMin           MetricSet           `json:"metrics_min"`
	R2CurveMax           *LearningCurve      `json:"r2_curve_max,omitempty"`
	R2CurveMin           *LearningCurve      `json:"r2_curve_min,omitempty"`
}
