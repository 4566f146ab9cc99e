package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"TrendSentinel/internal/model"
)

// ScanSummary is what a scheduled scan reports.
type ScanSummary struct {
	List       string
	At         time.Time
	Elapsed    time.Duration
	Results    []model.AnalysisResult // ranked
	TopN       int
	TripleUp   int
	TripleDown int
	Errors     int
}

// FormatScanReport formats a ranked universe scan into a Telegram message.
func FormatScanReport(s ScanSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>TrendSentinel scan</b> | %s | %s\n\n", s.List, s.At.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Symbols: %d | Errors: %d | Took: %s\n", len(s.Results), s.Errors, s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Triple UP: %d | Triple DOWN: %d\n\n", s.TripleUp, s.TripleDown)

	b.WriteString("🏆 <b>Top ranked:</b>\n")
	n := 0
	for _, r := range s.Results {
		if n == s.TopN {
			break
		}
		if r.Error != "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%2d. %s %+d | CMP %s | upside %s\n",
			n, html.EscapeString(r.Symbol), r.TotalScore(), num(r.CMP), pct(r.Upside))
	}
	if n == 0 {
		b.WriteString("  (no results)\n")
	}
	return b.String()
}

// FormatStock formats a single symbol evaluation.
func FormatStock(r model.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 <b>%s</b>\n", html.EscapeString(r.Symbol))
	if r.Error != "" {
		fmt.Fprintf(&b, "❌ %s\n", html.EscapeString(r.Error))
		return b.String()
	}

	fmt.Fprintf(&b, "CMP: %s (%s)\n", num(r.CMP), pct(r.CMPChangePct))
	b.WriteString("UDTS:")
	for _, tf := range model.Timeframes {
		fmt.Fprintf(&b, " %s=%s", tf, r.UDTS[tf])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Daily support: %s (%s)\n", num(r.DailySupport), pct(r.DailySupportPct))
	if bt := r.BiggestTrend; bt != nil {
		fmt.Fprintf(&b, "Biggest 15m: %s from %.2f (%s)\n", bt.Direction, bt.Support, pct(bt.DistancePct))
	}
	if it := r.InitialTrend; it != nil {
		fmt.Fprintf(&b, "Opening range: %s at %.2f\n", it.Direction, it.Support)
	}

	if s := r.Scores; s != nil {
		b.WriteString("\n📈 <b>Score:</b>\n")
		for _, f := range s.Factors {
			fmt.Fprintf(&b, "  %s (%s): %+d\n", f.Name, html.EscapeString(f.Commentary), f.Score)
		}
		b.WriteString("  ─────────────────\n")
		fmt.Fprintf(&b, "  Total: %+d\n", s.Total)
	}

	if f := r.Fundamentals; f != nil {
		b.WriteString("\n")
		if sec := f.Sector.ValueOrZero(); sec != "" {
			fmt.Fprintf(&b, "Sector: %s / %s\n", html.EscapeString(sec), html.EscapeString(f.Industry.ValueOrZero()))
		}
		fmt.Fprintf(&b, "Target: %s | Upside: %s | Analysts: %s\n", num(f.TargetPrice), pct(r.Upside), count(f.AnalystCount))
	}
	ind := r.Indicators
	fmt.Fprintf(&b, "RSI %s | ADX %s | BB%%B d/w/m %s/%s/%s\n",
		num(ind.DailyRSI), num(ind.DailyADX), num(ind.DailyBBPct), num(ind.WeeklyBBPct), num(ind.MonthlyBBPct))
	return b.String()
}

// HelpText lists the supported bot commands.
func HelpText() string {
	return "Available commands:\n• /stock SYMBOL\n• /top\n• /refresh"
}

func num(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func pct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v.Float64)
}

func count(v null.Int) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprint(v.Int64)
}
