// Package store persists forecast run history in SQLite.
package store

import (
	"database/sql"
	"time"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RunRecord is one completed forecast run as recorded for /api/runs.
type RunRecord struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	Days         int       `json:"days"`
	StartDate    string    `json:"start_date"`
	Rows         int       `json:"rows"`
	BestModelMax string    `json:"best_model_max"`
	BestModelMin string    `json:"best_model_min"`
	TestRMSEMax  float64   `json:"test_rmse_max"`
	TestRMSEMin  float64   `json:"test_rmse_min"`
	HottestDate  string    `json:"hottest_date"`
	HottestTmax  float64   `json:"hottest_tmax"`
	ColdestDate  string    `json:"coldest_date"`
	ColdestTmin  float64   `json:"coldest_tmin"`
	DurationMS   int64     `json:"duration_ms"`
}

func (s *Store) InsertRun(r RunRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO forecast_runs (created_at, source, days, start_date, rows, best_model_max, best_model_min, test_rmse_max, test_rmse_min, hottest_date, hottest_tmax, coldest_date, coldest_tmin, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.CreatedAt, r.Source, r.Days, r.StartDate, r.Rows, r.BestModelMax, r.BestModelMin, r.TestRMSEMax, r.TestRMSEMin, r.HottestDate, r.HottestTmax, r.ColdestDate, r.ColdestTmin, r.DurationMS)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, source, days, start_date, rows, best_model_max, best_model_min, test_rmse_max, test_rmse_min, hottest_date, hottest_tmax, coldest_date, coldest_tmin, duration_ms
		FROM forecast_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Days, &r.StartDate, &r.Rows, &r.BestModelMax, &r.BestModelMin, &r.TestRMSEMax, &r.TestRMSEMin, &r.HottestDate, &r.HottestTmax, &r.ColdestDate, &r.ColdestTmin, &r.DurationMS); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
