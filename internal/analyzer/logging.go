package analyzer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/model"
)

// loggingMiddleware wraps Service and logs each evaluation.
type loggingMiddleware struct {
	logger zerolog.Logger
	svc    Service
}

func (s *loggingMiddleware) Analyze(ctx context.Context, symbol string) (res model.AnalysisResult) {
	defer func(begin time.Time) {
		ev := s.logger.Debug()
		if res.Error != "" {
			ev = s.logger.Error().Str("err", res.Error)
		}
		ev.Str("method", "Analyze").
			Str("symbol", symbol).
			Int("total", res.TotalScore()).
			Dur("elapsed", time.Since(begin)).
			Msg("analyzed")
	}(time.Now())
	return s.svc.Analyze(ctx, symbol)
}

// NewLoggingMiddleware ...
func NewLoggingMiddleware(logger zerolog.Logger, svc Service) Service {
	return &loggingMiddleware{logger: logger, svc: svc}
}
