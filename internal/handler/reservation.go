package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/payment"
	"github.com/iliyamo/movie-reservation/internal/service"
)

// Paging defaults for GET /v1/reservations.
const (
	defaultLimit = 100
	maxLimit     = 100
)

// ReservationHandler serves the authenticated reservation endpoints.  Every
// method expects JWTAuth to have run.
type ReservationHandler struct {
	Ledger *service.Ledger
	Log    zerolog.Logger
}

func NewReservationHandler(ledger *service.Ledger, log zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{Ledger: ledger, Log: log}
}

type createReservationRequest struct {
	ScreeningID uint64 `json:"screening_id"`
	SeatNumber  string `json:"seat_number"`
	Payment     struct {
		CardNumber string `json:"card_number"`
	} `json:"payment"`
}

// reservationResponse is a reservation plus, on creation, the payment
// outcome.  The payment is not stored.
type reservationResponse struct {
	ID          uint64          `json:"id"`
	ScreeningID uint64          `json:"screening_id"`
	UserID      uint64          `json:"user_id"`
	SeatNumber  string          `json:"seat_number"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CancelledAt *time.Time      `json:"cancelled_at"`
	PaymentInfo *payment.Record `json:"payment_info,omitempty"`
}

func toResponse(r model.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID,
		ScreeningID: r.ScreeningID,
		UserID:      r.UserID,
		SeatNumber:  r.SeatLabel,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		CancelledAt: r.CancelledAt,
	}
}

// Create handles POST /v1/reservations.  It returns 201 with the
// reservation and payment_info on success.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, rec, err := h.Ledger.Create(c.Request().Context(), service.CreateInput{
		ScreeningID: body.ScreeningID,
		UserID:      userID,
		SeatLabel:   strings.TrimSpace(body.SeatNumber),
		CardNumber:  body.Payment.CardNumber,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := toResponse(res)
	out.PaymentInfo = &rec
	return c.JSON(http.StatusCreated, out)
}

// List handles GET /v1/reservations?skip=&limit=.  skip defaults to 0 and
// limit to 100; limit is capped at 100.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	skip, limit, ok := paging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skip or limit"})
	}
	items, err := h.Ledger.List(c.Request().Context(), userID, skip, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]reservationResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.  Reservations of other users are
// reported as not found.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Ledger.Get(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Ledger.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

// paging parses skip and limit query parameters.
func paging(c echo.Context) (skip, limit int, ok bool) {
	skip, limit = 0, defaultLimit
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		skip = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit, true
}
