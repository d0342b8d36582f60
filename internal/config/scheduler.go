package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/movie-reservation/internal/seating"
)

// SchedulerConfig controls the weekly screening scheduler.  Showtimes and
// Prices are parallel lists: the i-th showtime is sold at the i-th price.
type SchedulerConfig struct {
	Enabled      bool
	Interval     time.Duration // time between passes
	RetryBackoff time.Duration // wait after a failed pass
	Threshold    int           // skip the pass when at least this many future screenings exist
	WindowDays   int           // days ahead to fill
	TotalSeats   int           // capacity of generated screenings
	Showtimes    []string      // "HH:MM", UTC
	PricesCents  []int64
	SeedMovies   bool // insert the default catalogue when no movies exist
}

func LoadSchedulerConfig() (SchedulerConfig, error) {
	cfg := SchedulerConfig{
		Enabled:      envBool("SCHEDULER_ENABLED", true),
		Interval:     envDur("SCHEDULER_INTERVAL", 24*time.Hour),
		RetryBackoff: envDur("SCHEDULER_RETRY_BACKOFF", time.Minute),
		Threshold:    envInt("SCHEDULER_THRESHOLD", 5),
		WindowDays:   envInt("SCHEDULER_WINDOW_DAYS", 7),
		TotalSeats:   envInt("SCHEDULER_TOTAL_SEATS", 100),
		Showtimes:    splitList(envStr("SCHEDULER_SHOWTIMES", "10:00,14:00,18:00,21:00")),
		SeedMovies:   envBool("SEED_MOVIES", true),
	}
	prices, err := parsePrices(envStr("SCHEDULER_PRICES", "10.00,12.50,15.00,12.50"))
	if err != nil {
		return SchedulerConfig{}, err
	}
	cfg.PricesCents = prices
	return cfg, cfg.Validate()
}

// Validate checks the invariants the scheduler relies on.
func (c SchedulerConfig) Validate() error {
	if len(c.Showtimes) == 0 {
		return fmt.Errorf("scheduler: at least one showtime is required")
	}
	if len(c.Showtimes) != len(c.PricesCents) {
		return fmt.Errorf("scheduler: %d showtimes but %d prices", len(c.Showtimes), len(c.PricesCents))
	}
	for _, st := range c.Showtimes {
		if _, _, err := ParseClock(st); err != nil {
			return err
		}
	}
	if c.TotalSeats <= 0 || c.TotalSeats > seating.MaxSeats {
		return fmt.Errorf("scheduler: total seats must be in 1..%d, got %d", seating.MaxSeats, c.TotalSeats)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("scheduler: window days must be positive, got %d", c.WindowDays)
	}
	if c.Interval <= 0 || c.RetryBackoff <= 0 {
		return fmt.Errorf("scheduler: interval and retry backoff must be positive")
	}
	return nil
}

// ParseClock splits an "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler: invalid showtime %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// parsePrices turns "10.00,12.50" into cents.  Prices are unsigned with at
// most two decimals.
func parsePrices(s string) ([]int64, error) {
	var out []int64
	for _, p := range splitList(s) {
		whole, frac, _ := strings.Cut(p, ".")
		if !allDigits(whole) || (frac != "" && !allDigits(frac)) {
			return nil, fmt.Errorf("scheduler: invalid price %q", p)
		}
		if len(frac) > 2 {
			return nil, fmt.Errorf("scheduler: price %q has more than two decimals", p)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid price %q: %w", p, err)
		}
		f, _ := strconv.ParseInt(frac, 10, 64)
		out = append(out, w*100+f)
	}
	return out, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
