package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/database"
	"github.com/iliyamo/movie-reservation/internal/handler"
	"github.com/iliyamo/movie-reservation/internal/logging"
	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/payment"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/repository/memory"
	"github.com/iliyamo/movie-reservation/internal/router"
	"github.com/iliyamo/movie-reservation/internal/scheduler"
	"github.com/iliyamo/movie-reservation/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

// storage is the set of repositories chosen by STORAGE_DRIVER.
type storage struct {
	movies       repository.MovieRepository
	screenings   repository.ScreeningRepository
	reservations repository.ReservationRepository
	ping         func(ctx context.Context) error
	close        func() error
}

func openStorage(ctx context.Context, cfg config.Config, log zerolog.Logger) (storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		st := memory.New()
		return storage{
			movies:       st.Movies(),
			screenings:   st.Screenings(),
			reservations: st.Reservations(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return storage{}, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, err
	}
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("database ready")
	return storage{
		movies:       repository.NewMovieRepo(db),
		screenings:   repository.NewScreeningRepo(db),
		reservations: repository.NewReservationRepo(db),
		ping:         db.PingContext,
		close:        db.Close,
	}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	if cfg.Scheduler.SeedMovies {
		n, err := scheduler.SeedMovies(ctx, st.movies, time.Now())
		if err != nil {
			return fmt.Errorf("seed movies: %w", err)
		}
		if n > 0 {
			log.Info().Int("movies", n).Msg("seeded default movies")
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Msg("redis unavailable; response cache off, rate limiting in-process")
	}

	var events service.EventPublisher = queue.Discard{}
	if cfg.Queue.URL != "" {
		events = queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Queue, log)
	}

	ledger := service.NewLedger(st.screenings, st.reservations,
		service.WithPayments(&payment.Simulator{}),
		service.WithPublisher(events),
		service.WithLogger(log.With().Str("component", "ledger").Logger()),
	)
	availability := service.NewAvailability(st.screenings, st.reservations)

	var limiter middleware.Limiter
	if rdb != nil {
		limiter = middleware.NewRedisBucket(cfg.RateLimit, rdb)
	} else {
		limiter = middleware.NewLocalLimiter(cfg.RateLimit)
	}

	e := router.New(router.Deps{
		Browse: &handler.BrowseHandler{
			Movies:       st.movies,
			Screenings:   st.screenings,
			Availability: availability,
			Log:          log,
		},
		Reservations: handler.NewReservationHandler(ledger, log),
		JWTSecret:    cfg.JWTSecret,
		Cache:        cfg.Cache,
		RateLimit:    cfg.RateLimit,
		Redis:        rdb,
		Limiter:      limiter,
		Ping:         st.ping,
		Log:          log,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(st.movies, st.screenings, cfg.Scheduler, log)
		if err != nil {
			return err
		}
		if rdb != nil {
			sched.SetAfterPass(func(ctx context.Context, _ int) {
				if _, err := middleware.PurgeCache(ctx, rdb, cfg.Cache.Prefix); err != nil {
					log.Warn().Err(err).Msg("purge browse cache failed")
				}
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if sched != nil {
		sched.Start(gctx)
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Str("storage", cfg.StorageDriver).Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Queue.URL != "" && cfg.Queue.Consume {
		consumer := queue.NewAuditConsumer(cfg.Queue.URL, cfg.Queue.Queue, cfg.Queue.AuditLogPath, log)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if sched != nil {
			if err := sched.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := e.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

