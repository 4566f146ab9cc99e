// Package batch evaluates symbol universes in bounded parallel groups.
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/store"
)

// Runner evaluates symbols in groups of Size, all members of a group in
// parallel, pausing between groups to stay under upstream rate limits.
type Runner struct {
	svc       analyzer.Service
	size      int
	pause     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	processed metrics.Counter
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleep replaces the pause between groups.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithProcessedCounter counts evaluated symbols labelled by "error".
func WithProcessedCounter(c metrics.Counter) Option {
	return func(r *Runner) { r.processed = c }
}

// NewRunner creates a Runner. Non-positive sizes fall back to 20.
func NewRunner(svc analyzer.Service, size int, pause time.Duration, opts ...Option) *Runner {
	if size <= 0 {
		size = 20
	}
	r := &Runner{
		svc:       svc,
		size:      size,
		pause:     pause,
		sleep:     sleepCtx,
		processed: discard.NewCounter(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is the outcome of one batch run.
type Report struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []model.AnalysisResult
}

// Errors counts results carrying an error.
func (r Report) Errors() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// Triple counts fully aligned results in each direction.
func (r Report) Triple() (up, down int) {
	for _, res := range r.Results {
		if res.IsTripleUp {
			up++
		}
		if res.IsTripleDown {
			down++
		}
	}
	return
}

// Run evaluates every symbol and returns the results ranked by total score,
// then by upside. A cancelled context stops before the next group; the
// symbols already evaluated are still returned.
func (r *Runner) Run(ctx context.Context, symbols []string) (Report, error) {
	rep := Report{ID: uuid.NewString(), StartedAt: r.now()}
	results := make([]model.AnalysisResult, 0, len(symbols))
	groups := (len(symbols) + r.size - 1) / r.size

	log.Info().Str("batch", rep.ID).Int("symbols", len(symbols)).Int("groups", groups).Msg("batch started")

	var runErr error
	for start := 0; start < len(symbols); start += r.size {
		end := min(start+r.size, len(symbols))
		results = append(results, r.runGroup(ctx, symbols[start:end])...)

		log.Info().Str("batch", rep.ID).
			Int("group", start/r.size+1).Int("groups", groups).
			Int("done", end).Int("total", len(symbols)).
			Msg("batch progress")

		if end < len(symbols) {
			if err := r.sleep(ctx, r.pause); err != nil {
				runErr = err
				break
			}
		}
	}

	Rank(results)
	rep.Results = results
	rep.FinishedAt = r.now()
	up, down := rep.Triple()
	log.Info().Str("batch", rep.ID).Int("results", len(results)).Int("errors", rep.Errors()).
		Int("triple_up", up).Int("triple_down", down).
		Dur("elapsed", rep.FinishedAt.Sub(rep.StartedAt)).Msg("batch finished")
	return rep, runErr
}

func (r *Runner) runGroup(ctx context.Context, symbols []string) []model.AnalysisResult {
	out := make([]model.AnalysisResult, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(len(symbols))
	for i, sym := range symbols {
		g.Go(func() error {
			res := r.svc.Analyze(ctx, sym)
			if res.Symbol == "" {
				res.Symbol = sym
			}
			out[i] = res
			failed := "false"
			if res.Error != "" {
				failed = "true"
			}
			r.processed.With("error", failed).Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Rank sorts results by total score descending, then upside descending.
// Results without scores rank as -999 and missing upside ranks last.
func Rank(results []model.AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].TotalScore(), results[j].TotalScore()
		if si != sj {
			return si > sj
		}
		ui, uj := results[i].Upside, results[j].Upside
		switch {
		case ui.Valid && uj.Valid:
			return ui.Float64 > uj.Float64
		case ui.Valid:
			return true
		}
		return false
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Record summarises the report for the run history.
func (r Report) Record(list string) *store.RunRecord {
	up, down := r.Triple()
	rec := &store.RunRecord{
		ID:         r.ID,
		List:       list,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Symbols:    len(r.Results),
		Errors:     r.Errors(),
		TripleUp:   up,
		TripleDown: down,
	}
	if len(r.Results) > 0 && r.Results[0].Error == "" {
		rec.TopSymbol = r.Results[0].Symbol
		rec.TopScore = r.Results[0].TotalScore()
	}
	return rec
}
