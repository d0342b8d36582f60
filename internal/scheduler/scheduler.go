// Package scheduler keeps a rolling week of screenings in the database.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// ErrStopTimeout is returned by Stop when the loop does not exit in time.
var ErrStopTimeout = errors.New("scheduler: stop timed out")

type slot struct {
	hour, minute int
	priceCents   int64
}

// Scheduler tops up future screenings.  A pass is skipped while at least
// Threshold screenings lie in the future; otherwise every movie gets one
// screening per day for WindowDays days, starting tomorrow, with the
// showtime rotating by day and movie.
type Scheduler struct {
	movies     repository.MovieRepository
	screenings repository.ScreeningRepository
	cfg        config.SchedulerConfig
	slots      []slot
	log        zerolog.Logger
	now        func() time.Time
	afterPass  func(ctx context.Context, created int)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New validates cfg and builds a Scheduler.
func New(movies repository.MovieRepository, screenings repository.ScreeningRepository, cfg config.SchedulerConfig, log zerolog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slots := make([]slot, len(cfg.Showtimes))
	for i, st := range cfg.Showtimes {
		h, m, err := config.ParseClock(st)
		if err != nil {
			return nil, err
		}
		slots[i] = slot{hour: h, minute: m, priceCents: cfg.PricesCents[i]}
	}
	return &Scheduler{
		movies:     movies,
		screenings: screenings,
		cfg:        cfg,
		slots:      slots,
		log:        log.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}, nil
}

// SetClock replaces time.Now.  Call it before Start.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// SetAfterPass registers fn to run after a pass that created screenings.
// Call it before Start.
func (s *Scheduler) SetAfterPass(fn func(ctx context.Context, created int)) { s.afterPass = fn }

// EnsureWeek runs one pass and returns the number of screenings created.
func (s *Scheduler) EnsureWeek(ctx context.Context) (int, error) {
	now := s.now().UTC()
	future, err := s.screenings.CountAfter(ctx, now)
	if err != nil {
		return 0, err
	}
	if future >= s.cfg.Threshold {
		s.log.Debug().Int("future", future).Msg("enough future screenings, skipping")
		return 0, nil
	}
	movies, err := s.movies.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(movies) == 0 {
		s.log.Warn().Msg("no movies found, cannot create screenings")
		return 0, nil
	}

	created := 0
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for day := 1; day <= s.cfg.WindowDays; day++ {
		date := today.AddDate(0, 0, day)
		for i, m := range movies {
			if err := ctx.Err(); err != nil {
				return created, err
			}
			sl := s.slots[(day+i)%len(s.slots)]
			_, inserted, err := s.screenings.InsertIfAbsent(ctx, model.Screening{
				MovieID:    m.ID,
				ShowTime:   date.Add(time.Duration(sl.hour)*time.Hour + time.Duration(sl.minute)*time.Minute),
				TotalSeats: s.cfg.TotalSeats,
				PriceCents: sl.priceCents,
				CreatedAt:  now,
			})
			if err != nil {
				return created, err
			}
			if inserted {
				created++
			}
		}
	}
	s.log.Info().Int("created", created).Int("movies", len(movies)).Msg("weekly screenings ensured")
	if created > 0 && s.afterPass != nil {
		s.afterPass(ctx, created)
	}
	return created, nil
}

// Run executes a pass immediately and then every Interval until ctx is
// cancelled.  A failed pass is retried after RetryBackoff.  Run returns nil
// once ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		wait := s.cfg.Interval
		if _, err := s.EnsureWeek(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Dur("retry_in", s.cfg.RetryBackoff).Msg("screening pass failed")
			wait = s.cfg.RetryBackoff
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// Start launches Run in a goroutine.  Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
}

// Stop cancels the loop and waits until it exits or ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrStopTimeout
	}
}
