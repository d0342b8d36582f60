package model

import "time"

// Movie is a film that can be scheduled for screenings.  The reservation
// core only reads movies; they are created by the seeding step or by
// administrative tooling owned elsewhere.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Description – optional synopsis.
//  PosterURL   – optional poster image location.
//  Genre       – genre label (Action, Comedy, ...).
//  CreatedAt   – creation timestamp.
type Movie struct {
	ID          uint64    `json:"id"`          // movies.id
	Title       string    `json:"title"`       // movies.title
	Description string    `json:"description"` // movies.description
	PosterURL   string    `json:"poster_url"`  // movies.poster_url
	Genre       string    `json:"genre"`       // movies.genre
	CreatedAt   time.Time `json:"created_at"`  // movies.created_at
}
