// Package repository defines the storage contracts of the reservation core
// and their MySQL implementations.  Sentinel errors declared here let the
// service layer tell storage outcomes apart without inspecting driver
// errors.
package repository

import "errors"

// ErrMovieNotFound is returned when no movie has the requested id.
var ErrMovieNotFound = errors.New("movie not found")

// ErrScreeningNotFound is returned when no screening has the requested id.
var ErrScreeningNotFound = errors.New("screening not found")

// ErrReservationNotFound is returned when no reservation matches the id
// and owner.  Absence and foreign ownership are deliberately the same
// error.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicateActiveSeat is returned when an insert would create a second
// active reservation for the same screening and seat.  It is raised by the
// storage constraint, not by a prior read.
var ErrDuplicateActiveSeat = errors.New("seat already has an active reservation")

// ErrNotActive is returned when a cancellation targets a reservation that
// is no longer active.
var ErrNotActive = errors.New("reservation is not active")
