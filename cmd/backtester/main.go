// Command backtester loads a CSV price series, runs a fast/slow SMA
// crossover strategy against a minimal fixed-price-fill broker, and
// prints a run summary plus an order blotter.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/gobacktest/core/config"
	"github.com/gobacktest/core/internal/broker"
	"github.com/gobacktest/core/internal/clock"
	"github.com/gobacktest/core/internal/engine"
	"github.com/gobacktest/core/internal/feed"
	"github.com/gobacktest/core/internal/numtime"
	"github.com/gobacktest/core/internal/store"
	"github.com/gobacktest/core/internal/timer"
	"github.com/gobacktest/core/internal/writer"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "path to a CSV bar file (overrides config)")
	dataName := flag.String("data", "DATA", "name reported for the feed/instrument")
	fastPeriod := flag.Int("fast", 10, "fast SMA period")
	slowPeriod := flag.Int("slow", 30, "slow SMA period")
	orderSize := flag.Float64("order-size", 1.0, "units traded per signal")
	startingCash := flag.Float64("cash", 10000, "starting cash for the reference broker")
	strategyID := flag.String("strategy-id", "sma-cross", "strategy identifier recorded in the results store")
	csvOut := flag.String("csv-out", "", "optional path to write one CSV row per tick")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *csvPath != "" {
		cfg.Feed.CSVPath = *csvPath
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("backtester starting",
		"config", *configPath,
		"csv", cfg.Feed.CSVPath,
		"fast", *fastPeriod,
		"slow", *slowPeriod,
	)

	st, err := store.Open(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open results store", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, strat, err := runBacktest(ctx, cfg, *dataName, *fastPeriod, *slowPeriod, *orderSize, *startingCash, *csvOut)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	run := store.Run{
		ID:         uuid.NewString(),
		StrategyID: *strategyID,
		Params: map[string]float64{
			"fast_period": float64(*fastPeriod),
			"slow_period": float64(*slowPeriod),
			"order_size":  *orderSize,
		},
		Summary: map[string]float64{
			"ending_cash": strat.brk.Cash(),
		},
		StopReason: result.StopReason,
		Ticks:      result.Ticks,
		DTMaster:   result.DTMaster,
		FinishedAt: time.Now(),
	}
	if err := st.SaveRun(ctx, run); err != nil {
		slog.Error("failed to persist run", "err", err)
	}

	writer.PrintRunSummary(os.Stdout, run)
	writer.PrintOrderBlotter(os.Stdout, strat.orders)

	slog.Info("backtester finished", "ticks", result.Ticks, "stop_reason", result.StopReason)
}

// runBacktest wires one feed, one broker, one strategy, and the engine
// together and runs them to completion.
func runBacktest(ctx context.Context, cfg *config.Config, dataName string, fastPeriod, slowPeriod int, orderSize, startingCash float64, csvOut string) (engine.Result, *smaCrossStrategy, error) {
	source := feed.NewCSVSource(cfg.Feed.CSVPath, cfg.Feed.TimeLayout, nil)
	f := feed.New(feed.Config{Name: dataName, TimeFrame: feed.Days, Compression: 1}, source)

	if err := f.Start(); err != nil {
		return engine.Result{}, nil, err
	}
	defer f.Stop()

	sync := clock.New(f)
	brk := broker.NewSim(startingCash)

	eng := engine.New(sync, brk, engine.Config{PollInterval: cfg.PollInterval(), CheatOnOpen: cfg.Engine.CheatOnOpen}, slog.Default())

	strat := newSMACrossStrategy(f, brk, fastPeriod, slowPeriod, orderSize, slog.Default())
	eng.AddStrategy(strat)

	sessionEnd, err := time.Parse("15:04", cfg.Feed.SessionEnd)
	if err == nil {
		when := time.Duration(sessionEnd.Hour())*time.Hour + time.Duration(sessionEnd.Minute())*time.Minute
		eng.AddTimer(timer.New(when), strat, false, true)
	}

	if csvOut != "" {
		w, err := writer.NewCSVFile(csvOut, []string{"datetime", "close", "fast", "slow"}, func() []string {
			return []string{
				numtime.ToTime(f.Datetime(0)).Format(time.RFC3339),
				formatFloat(f.Close(0)),
				formatFloat(strat.fast.Line.Get(0)),
				formatFloat(strat.slow.Line.Get(0)),
			}
		})
		if err != nil {
			return engine.Result{}, nil, err
		}
		if err := w.Start(); err != nil {
			return engine.Result{}, nil, err
		}
		defer w.Stop()
		eng.AddWriter(w)
	}

	result, err := eng.Run(ctx)
	return result, strat, err
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
