package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/tempcast/internal/api"
	"github.com/lox/tempcast/internal/forecast"
	"github.com/lox/tempcast/internal/store"
)

var cli struct {
	Data string `help:"CSV file path or http(s) URL of daily observations." env:"TEMPCAST_DATA" required:""`
	DB   string `help:"Path to the SQLite run-history database. Empty disables history." env:"TEMPCAST_DB" default:"data/tempcast.db"`
	Port string `help:"HTTP server port." env:"TEMPCAST_PORT" default:"8080"`

	Days       int   `help:"Default forecast horizon in days." env:"TEMPCAST_DAYS" default:"90"`
	Seed       int64 `help:"Random seed for model fitting and forecast jitter." env:"TEMPCAST_SEED" default:"42"`
	MaxSamples int   `help:"Cap training to the most recent N rows. Zero means no cap." env:"TEMPCAST_MAX_SAMPLES" default:"0"`

	LearningCurve bool `help:"Compute the R² learning curve diagnostic." env:"TEMPCAST_LEARNING_CURVE"`
	RefitCurve    bool `help:"Refit models at each learning curve fraction instead of approximating." env:"TEMPCAST_REFIT_CURVE"`

	Once      bool   `help:"Run a single forecast, print JSON to stdout, and exit."`
	StartDate string `help:"First forecast date (YYYY-MM-DD) for --once runs."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("tempcast"),
		kong.Description("Statistical daily temperature forecast service."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	if cli.Once {
		runOnce()
		return
	}

	var st *store.Store
	if cli.DB != "" {
		db, err := sql.Open("sqlite", cli.DB)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()

		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")

		st = store.New(db)
		if err := st.Migrate(); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("database migrated")
	} else {
		log.Println("run history disabled (no database path)")
	}

	server := api.NewServer(api.Config{
		Source:        cli.Data,
		Days:          cli.Days,
		Seed:          cli.Seed,
		MaxSamples:    cli.MaxSamples,
		LearningCurve: cli.LearningCurve,
		RefitCurve:    cli.RefitCurve,
	}, st, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// runOnce executes one forecast and prints the same payload the API
// serves, for cron jobs and shell pipelines.
func runOnce() {
	result, err := forecast.Run(forecast.RunConfig{
		Source:        cli.Data,
		Days:          cli.Days,
		StartDate:     cli.StartDate,
		Seed:          cli.Seed,
		MaxSamples:    cli.MaxSamples,
		LearningCurve: cli.LearningCurve,
		RefitCurve:    cli.RefitCurve,
	})
	if err != nil {
		log.Fatalf("forecast: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"models":   result.Models,
		"forecast": result.Forecast,
	}); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
