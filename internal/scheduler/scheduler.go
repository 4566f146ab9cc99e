package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/batch"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/store"
)

// Universe resolves the symbols of an index list.
type Universe interface {
	Symbols(ctx context.Context, list string) []string
}

// Clearer drops every cached entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Sender delivers a report. A nil Sender disables notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic universe scan and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *batch.Runner
	Analyzer analyzer.Service
	Universe Universe
	Cache    Clearer
	Store    store.Store
	Notifier Sender
	List     string
	TopN     int
	Ctx      context.Context

	mu      sync.Mutex
	running bool
	latest  *batch.Report
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *batch.Runner, svc analyzer.Service, u Universe, c Clearer, st store.Store, n Sender, list string, topN int) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Analyzer: svc,
		Universe: u,
		Cache:    c,
		Store:    st,
		Notifier: n,
		List:     list,
		TopN:     topN,
		Ctx:      ctx,
	}
}

// RegisterAll registers the scan task and, when clearCron is set, a periodic
// cache clear.
func (s *Scheduler) RegisterAll(scanCron, clearCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, func() { s.scanTask() }); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if clearCron != "" {
		if _, err := s.Cron.AddFunc(clearCron, s.clearTask); err != nil {
			return fmt.Errorf("register clear task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// Latest returns the most recent completed scan.
func (s *Scheduler) Latest() (batch.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return batch.Report{}, false
	}
	return *s.latest, true
}

// scanTask ranks the universe, records the run and sends the summary. It
// returns false when another scan was already running.
func (s *Scheduler) scanTask() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("scan already running, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Info().Str("list", s.List).Msg("running scan")
	symbols := s.Universe.Symbols(s.Ctx, s.List)
	rep, err := s.Runner.Run(s.Ctx, symbols)
	if err != nil {
		log.Error().Err(err).Str("batch", rep.ID).Msg("scan interrupted")
		return true
	}

	s.mu.Lock()
	s.latest = &rep
	s.mu.Unlock()

	if err := s.Store.RecordRun(s.Ctx, rep.Record(s.List)); err != nil {
		log.Error().Err(err).Str("batch", rep.ID).Msg("record run")
	}

	up, down := rep.Triple()
	s.trySend(notifier.FormatScanReport(notifier.ScanSummary{
		List:       s.List,
		At:         rep.FinishedAt,
		Elapsed:    rep.FinishedAt.Sub(rep.StartedAt),
		Results:    rep.Results,
		TopN:       s.TopN,
		TripleUp:   up,
		TripleDown: down,
		Errors:     rep.Errors(),
	}))
	return true
}

func (s *Scheduler) clearTask() {
	if err := s.Cache.Clear(s.Ctx); err != nil {
		log.Error().Err(err).Msg("scheduled cache clear")
		return
	}
	log.Info().Msg("caches cleared")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	switch strings.ToLower(fields[0]) {
	case "/stock":
		if len(fields) < 2 {
			return "Usage: /stock SYMBOL"
		}
		return notifier.FormatStock(s.Analyzer.Analyze(ctx, strings.ToUpper(fields[1])))
	case "/top":
		rep, ok := s.Latest()
		if !ok {
			go s.scanTask()
			return "No scan yet, starting one now."
		}
		up, down := rep.Triple()
		return notifier.FormatScanReport(notifier.ScanSummary{
			List:       s.List,
			At:         rep.FinishedAt,
			Elapsed:    rep.FinishedAt.Sub(rep.StartedAt),
			Results:    rep.Results,
			TopN:       s.TopN,
			TripleUp:   up,
			TripleDown: down,
			Errors:     rep.Errors(),
		})
	case "/refresh":
		if err := s.Cache.Clear(ctx); err != nil {
			return "Cache clear failed: " + err.Error()
		}
		return "Cache cleared"
	case "/runs":
		runs, err := s.Store.RecentRuns(ctx, 5)
		if err != nil {
			return "Run history unavailable: " + err.Error()
		}
		return formatRuns(runs)
	default:
		return notifier.HelpText()
	}
}

func formatRuns(runs []store.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded"
	}
	var b strings.Builder
	b.WriteString("Recent scans:\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "• %s %s: %d symbols, %d errors, top %s %+d (%s)\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.List, r.Symbols, r.Errors,
			orDash(r.TopSymbol), r.TopScore, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
