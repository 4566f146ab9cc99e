package analyzer

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"

	"TrendSentinel/internal/model"
)

// instrumentingMiddleware wraps Service and records request metrics.
type instrumentingMiddleware struct {
	reqCount    metrics.Counter
	reqDuration metrics.Histogram
	svc         Service
}

func (s *instrumentingMiddleware) Analyze(ctx context.Context, symbol string) (res model.AnalysisResult) {
	defer func(begin time.Time) {
		s.recordMetrics("Analyze", begin, res.Error != "")
	}(time.Now())
	return s.svc.Analyze(ctx, symbol)
}

func (s *instrumentingMiddleware) recordMetrics(method string, startTime time.Time, failed bool) {
	labels := []string{
		"method", method,
		"error", strconv.FormatBool(failed),
	}
	s.reqCount.With(labels...).Add(1)
	s.reqDuration.With(labels...).Observe(time.Since(startTime).Seconds())
}

// NewInstrumentingMiddleware ...
func NewInstrumentingMiddleware(reqCount metrics.Counter, reqDuration metrics.Histogram, svc Service) Service {
	return &instrumentingMiddleware{
		reqCount:    reqCount,
		reqDuration: reqDuration,
		svc:         svc,
	}
}
