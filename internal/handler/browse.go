package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/service"
)

// BrowseHandler serves the public catalogue: movies, screenings and seat
// availability.  None of its routes require authentication.
type BrowseHandler struct {
	Movies       repository.MovieRepository
	Screenings   repository.ScreeningRepository
	Availability *service.Availability
	Log          zerolog.Logger
}

// screeningView is a screening as shown to clients.  Price is in cents.
type screeningView struct {
	ID         uint64       `json:"id"`
	MovieID    uint64       `json:"movie_id"`
	ShowTime   time.Time    `json:"show_datetime"`
	TotalSeats int          `json:"total_seats"`
	PriceCents int64        `json:"price_cents"`
	Movie      *model.Movie `json:"movie,omitempty"`
}

func toScreeningView(s model.Screening) screeningView {
	return screeningView{
		ID:         s.ID,
		MovieID:    s.MovieID,
		ShowTime:   s.ShowTime,
		TotalSeats: s.TotalSeats,
		PriceCents: s.PriceCents,
	}
}

// ListMovies handles GET /v1/movies.
func (h *BrowseHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// ListScreenings handles GET /v1/screenings?skip=&limit=, ordered by show
// time.
func (h *BrowseHandler) ListScreenings(c echo.Context) error {
	skip, limit, ok := paging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skip or limit"})
	}
	list, err := h.Screenings.List(c.Request().Context(), skip, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]screeningView, 0, len(list))
	for _, s := range list {
		out = append(out, toScreeningView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetScreening handles GET /v1/screenings/:id and embeds the movie.
func (h *BrowseHandler) GetScreening(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	ctx := c.Request().Context()
	s, err := h.Screenings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			err = service.ErrScreeningNotFound
		}
		return writeError(c, h.Log, err)
	}
	out := toScreeningView(s)
	if m, err := h.Movies.GetByID(ctx, s.MovieID); err == nil {
		out.Movie = &m
	} else if !errors.Is(err, repository.ErrMovieNotFound) {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetSeats handles GET /v1/screenings/:id/seats.  The answer is advisory;
// a booking for a listed seat can still conflict.
func (h *BrowseHandler) GetSeats(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	av, err := h.Availability.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, av)
}
