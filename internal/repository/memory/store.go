// Package memory is an in-process implementation of the repository
// contracts.  It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

type seatKey struct {
	screeningID uint64
	label       string
}

type movieKey struct {
	movieID  uint64
	showTime int64
}

// Store holds movies, screenings and reservations in maps.  Transactions
// are serialized by txMu; reads take mu only, so they never wait on a
// transaction that is still running.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	movies     []model.Movie
	screenings map[uint64]model.Screening
	byShow     map[movieKey]uint64

	reservations map[uint64]model.Reservation
	activeSeats  map[seatKey]uint64

	nextMovie       uint64
	nextScreening   uint64
	nextReservation uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		screenings:   make(map[uint64]model.Screening),
		byShow:       make(map[movieKey]uint64),
		reservations: make(map[uint64]model.Reservation),
		activeSeats:  make(map[seatKey]uint64),
	}
}

// Movies exposes the store as a repository.MovieRepository.
func (s *Store) Movies() repository.MovieRepository { return movieRepo{s} }

// Screenings exposes the store as a repository.ScreeningRepository.
func (s *Store) Screenings() repository.ScreeningRepository { return screeningRepo{s} }

// Reservations exposes the store as a repository.ReservationRepository.
func (s *Store) Reservations() repository.ReservationRepository { return reservationRepo{s} }

type movieRepo struct{ s *Store }

func (r movieRepo) List(ctx context.Context) ([]model.Movie, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Movie, len(r.s.movies))
	copy(out, r.s.movies)
	return out, nil
}

func (r movieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

func (r movieRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.movies), nil
}

func (r movieRepo) Create(ctx context.Context, m model.Movie) (model.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMovie++
	m.ID = r.s.nextMovie
	r.s.movies = append(r.s.movies, m)
	return m, nil
}

type screeningRepo struct{ s *Store }

func (r screeningRepo) GetByID(ctx context.Context, id uint64) (model.Screening, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sc, ok := r.s.screenings[id]
	if !ok {
		return model.Screening{}, repository.ErrScreeningNotFound
	}
	return sc, nil
}

func (r screeningRepo) List(ctx context.Context, offset, limit int) ([]model.Screening, error) {
	r.s.mu.RLock()
	all := make([]model.Screening, 0, len(r.s.screenings))
	for _, sc := range r.s.screenings {
		all = append(all, sc)
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ShowTime.Equal(all[j].ShowTime) {
			return all[i].ShowTime.Before(all[j].ShowTime)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, offset, limit), nil
}

func (r screeningRepo) CountAfter(ctx context.Context, t time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, sc := range r.s.screenings {
		if sc.ShowTime.After(t) {
			n++
		}
	}
	return n, nil
}

func (r screeningRepo) InsertIfAbsent(ctx context.Context, sc model.Screening) (model.Screening, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc.ShowTime = sc.ShowTime.UTC()
	key := movieKey{movieID: sc.MovieID, showTime: sc.ShowTime.UnixNano()}
	if id, ok := r.s.byShow[key]; ok {
		return r.s.screenings[id], false, nil
	}
	r.s.nextScreening++
	sc.ID = r.s.nextScreening
	r.s.screenings[sc.ID] = sc
	r.s.byShow[key] = sc.ID
	return sc, true, nil
}

type reservationRepo struct{ s *Store }

// WithTx runs fn with exclusive access to the reservation writes.  Writes
// are buffered and applied only when fn returns nil.
func (r reservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.ReservationTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	tx := &memTx{s: r.s, pending: make(map[uint64]model.Reservation)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range tx.order {
		res := tx.pending[id]
		r.s.reservations[id] = res
		key := seatKey{screeningID: res.ScreeningID, label: res.SeatLabel}
		if res.Active() {
			r.s.activeSeats[key] = id
		} else if r.s.activeSeats[key] == id {
			delete(r.s.activeSeats, key)
		}
	}
	return nil
}

func (r reservationRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok || res.UserID != userID {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return res, nil
}

func (r reservationRepo) ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Reservation, error) {
	r.s.mu.RLock()
	out := make([]model.Reservation, 0)
	for _, res := range r.s.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, offset, limit), nil
}

func (r reservationRepo) ActiveSeatLabels(ctx context.Context, screeningID uint64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	labels := make([]string, 0)
	for k := range r.s.activeSeats {
		if k.screeningID == screeningID {
			labels = append(labels, k.label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// memTx sees committed state plus its own pending writes.
type memTx struct {
	s       *Store
	pending map[uint64]model.Reservation
	order   []uint64
}

func (t *memTx) lookup(id uint64) (model.Reservation, bool) {
	if res, ok := t.pending[id]; ok {
		return res, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	res, ok := t.s.reservations[id]
	return res, ok
}

func (t *memTx) stage(res model.Reservation) {
	if _, ok := t.pending[res.ID]; !ok {
		t.order = append(t.order, res.ID)
	}
	t.pending[res.ID] = res
}

func (t *memTx) SeatTaken(ctx context.Context, screeningID uint64, seatLabel string) (bool, error) {
	for _, res := range t.pending {
		if res.ScreeningID == screeningID && res.SeatLabel == seatLabel && res.Active() {
			return true, nil
		}
	}
	t.s.mu.RLock()
	id, ok := t.s.activeSeats[seatKey{screeningID: screeningID, label: seatLabel}]
	t.s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	res, _ := t.lookup(id)
	return res.Active(), nil
}

func (t *memTx) CountActive(ctx context.Context, screeningID uint64) (int, error) {
	t.s.mu.RLock()
	n := 0
	for k, id := range t.s.activeSeats {
		if k.screeningID != screeningID {
			continue
		}
		if p, ok := t.pending[id]; ok && !p.Active() {
			continue
		}
		n++
	}
	t.s.mu.RUnlock()
	for id, res := range t.pending {
		if res.ScreeningID != screeningID || !res.Active() {
			continue
		}
		t.s.mu.RLock()
		_, committed := t.s.reservations[id]
		t.s.mu.RUnlock()
		if !committed {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Insert(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	if res.Active() {
		taken, _ := t.SeatTaken(ctx, res.ScreeningID, res.SeatLabel)
		if taken {
			return model.Reservation{}, repository.ErrDuplicateActiveSeat
		}
	}
	t.s.mu.Lock()
	t.s.nextReservation++
	res.ID = t.s.nextReservation
	t.s.mu.Unlock()
	t.stage(res)
	return res, nil
}

func (t *memTx) LockForUser(ctx context.Context, id, userID uint64) (model.Reservation, error) {
	res, ok := t.lookup(id)
	if !ok || res.UserID != userID {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return res, nil
}

func (t *memTx) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	res, ok := t.lookup(id)
	if !ok {
		return repository.ErrReservationNotFound
	}
	if !res.Active() {
		return repository.ErrNotActive
	}
	at = at.UTC()
	res.Status = model.StatusCancelled
	res.CancelledAt = &at
	t.stage(res)
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
