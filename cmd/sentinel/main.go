package main

import (
	"context"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	fasthttpprometheus "github.com/flf2ko/fasthttp-prometheus"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/batch"
	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/calendar"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/scheduler"
	"TrendSentinel/internal/server"
	"TrendSentinel/internal/store"
	"TrendSentinel/internal/trend"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Info().Str("universe", cfg.DataSource.Universe).Msg("TrendSentinel starting")

	cal, err := calendar.New(calendar.Config{
		UTCOffsetMinutes: cfg.Calendar.UTCOffsetMinutes,
		Open:             cfg.Calendar.Open,
		Close:            cfg.Calendar.Close,
		TradingDays:      cfg.Calendar.TradingDays,
		MonthlyCutoffDay: cfg.Calendar.MonthlyCutoffDay,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init calendar")
	}
	rule, err := trend.ParseReversalRule(cfg.Analysis.ReversalRule)
	if err != nil {
		log.Fatal().Err(err).Msg("reversal rule")
	}

	// The durable tier is optional; without it the in-process tier carries on alone.
	var st store.Store
	dbHealthy := false
	if sq, err := store.NewSQLiteStore(cfg.Database.SQLitePath); err != nil {
		log.Warn().Err(err).Str("path", cfg.Database.SQLitePath).Msg("init sqlite store failed, using noop")
		st = store.NewNoopStore()
	} else {
		st = sq
		dbHealthy = true
	}
	defer st.Close()

	ns := cfg.Metrics.Subsystem
	tiered := cache.NewTiered(st, cache.NewMemoryStore(),
		cache.WithMaxAge(cache.KindCandles, cfg.Cache.CandlesMaxAge),
		cache.WithMaxAge(cache.KindFundamentals, cfg.Cache.FundamentalsMaxAge),
		cache.WithMaxAge(cache.KindInstitutional, cfg.Cache.InstitutionalMaxAge),
		cache.WithMaxAge(cache.KindSymbolList, cfg.Cache.SymbolListMaxAge),
		cache.WithLookupCounter(kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Subsystem: ns,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and serving tier.",
		}, []string{"kind", "tier"})),
	)

	fetcher := collector.NewYahooFetcher(cfg.DataSource.ChartURL, cfg.DataSource.SummaryURL, cfg.Proxy)
	universe := collector.NewNSEFetcher(cfg.DataSource.Nifty50URL, cfg.DataSource.Nifty500URL, cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	opts := collector.DefaultOptions()
	opts.Retry.MaxRetries = cfg.Retry.MaxRetries
	opts.Retry.MaxBackoff = cfg.Retry.MaxBackoff
	opts.CandlesStaleAge = cfg.Cache.CandlesStaleAge
	opts.FundamentalsStaleAge = cfg.Cache.FundamentalsStaleAge
	col := collector.NewCollector(fetcher, universe, tiered, opts)

	methodError := []string{"method", "error"}
	svc := analyzer.NewService(col, cal, rule)
	svc = analyzer.NewLoggingMiddleware(log.Logger, svc)
	svc = analyzer.NewInstrumentingMiddleware(
		kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Subsystem: ns,
			Name:      "analyze_requests_total",
			Help:      "Number of symbol analyses.",
		}, methodError),
		kitprometheus.NewSummaryFrom(prometheus.SummaryOpts{
			Subsystem: ns,
			Name:      "analyze_duration_seconds",
			Help:      "Time spent analysing one symbol.",
		}, methodError),
		svc,
	)

	runner := batch.NewRunner(svc, cfg.Batch.Size, cfg.Batch.Pause,
		batch.WithProcessedCounter(kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Subsystem: ns,
			Name:      "batch_symbols_total",
			Help:      "Symbols processed by batch scans.",
		}, []string{"error"})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A nil *TelegramNotifier must not reach the scheduler as a non-nil Sender.
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, runner, svc, col, tiered, st, sender, cfg.DataSource.Universe, cfg.Telegram.TopN)
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.ClearCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go sched.RunScanNow()
	}

	index := analyzer.NewIndexSummarizer(col, tiered, cal, rule, analyzer.WithIndexWorkers(cfg.Batch.Size))

	api := server.New(server.Config{
		Analyzer:  svc,
		Index:     index,
		Runner:    runner,
		Symbols:   col,
		Cache:     tiered,
		List:      cfg.DataSource.Universe,
		DBHealthy: dbHealthy,
		Timeout:   cfg.HTTP.RequestTimeout,
	})
	router := api.Router()
	router.Handle("GET", "/debug/pprof/", fasthttpadaptor.NewFastHTTPHandlerFunc(pprof.Index))
	router.Handle("GET", "/debug/pprof/profile", fasthttpadaptor.NewFastHTTPHandlerFunc(pprof.Profile))

	p := fasthttpprometheus.NewPrometheus(ns)
	httpServer := &fasthttp.Server{
		Handler:     fasthttp.CompressHandler(p.WrapHandler(router)),
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting http server")
		if err := httpServer.ListenAndServe(cfg.HTTP.Addr); err != nil {
			log.Fatal().Err(err).Msg("server run failure")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info().Str("signal", sig.String()).Msg("shutdown signal received, stopping")
	cancel()
	if err := httpServer.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server shutdown failure")
	}
	log.Info().Msg("TrendSentinel stopped")
}
