// Package calendar knows the exchange trading hours and decides which candles
// of a series are closed enough to be evaluated.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Config describes a single exchange calendar.
type Config struct {
	UTCOffsetMinutes int
	Open             string // "15:04"
	Close            string
	TradingDays      []string
	MonthlyCutoffDay int
}

// Calendar answers market-hours questions in the exchange's local time.
type Calendar struct {
	loc              *time.Location
	open             int // minutes after local midnight
	close            int
	tradingDays      map[time.Weekday]bool
	monthlyCutoffDay int
	// Monday-based day indexes bounding the forming weekly candle: it starts
	// at weekFirst's open and is final from weekFinal's close.
	weekFirst int
	weekFinal int
}

// NSE returns the Indian equity calendar: Mon-Fri 09:15-15:30 IST.
func NSE() *Calendar {
	c, _ := New(Config{
		UTCOffsetMinutes: 330,
		Open:             "09:15",
		Close:            "15:30",
		TradingDays:      []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		MonthlyCutoffDay: 24,
	})
	return c
}

// New builds a Calendar from its configuration.
func New(cfg Config) (*Calendar, error) {
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	closeAt, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("close %s is not after open %s", cfg.Close, cfg.Open)
	}
	days := make(map[time.Weekday]bool, len(cfg.TradingDays))
	for _, d := range cfg.TradingDays {
		wd, ok := parseWeekday(d)
		if !ok {
			return nil, fmt.Errorf("unknown trading day %q", d)
		}
		days[wd] = true
	}
	first, final := weekBounds(days)
	name := fmt.Sprintf("UTC%+03d:%02d", cfg.UTCOffsetMinutes/60, abs(cfg.UTCOffsetMinutes%60))
	if cfg.UTCOffsetMinutes == 330 {
		name = "IST"
	}
	return &Calendar{
		loc:              time.FixedZone(name, cfg.UTCOffsetMinutes*60),
		open:             open,
		close:            closeAt,
		tradingDays:      days,
		monthlyCutoffDay: cfg.MonthlyCutoffDay,
		weekFirst:        first,
		weekFinal:        final,
	}, nil
}

// weekBounds returns the first trading day of the week and the one whose
// close finalises the weekly candle: the second-to-last trading day, or the
// only one.
func weekBounds(days map[time.Weekday]bool) (first, final int) {
	var idx []int
	for i := 0; i < 7; i++ {
		if days[weekdayAt(i)] {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 0, 6
	}
	first, final = idx[0], idx[len(idx)-1]
	if len(idx) > 1 {
		final = idx[len(idx)-2]
	}
	return first, final
}

// mondayIndex numbers weekdays from Monday (0) to Sunday (6).
func mondayIndex(d time.Weekday) int { return (int(d) + 6) % 7 }

func weekdayAt(i int) time.Weekday { return time.Weekday((i + 1) % 7) }

// Location is the exchange time zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current exchange-local time.
func (c *Calendar) Now() time.Time { return time.Now().In(c.loc) }

// IsOpen reports whether now falls on a trading day within [open, close).
func (c *Calendar) IsOpen(now time.Time) bool {
	t := now.In(c.loc)
	if !c.tradingDays[t.Weekday()] {
		return false
	}
	m := minuteOfDay(t)
	return m >= c.open && m < c.close
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, true
		}
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
