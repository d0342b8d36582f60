package scheduler

import (
	"context"
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// DefaultMovies is the catalogue inserted into an empty database.
var DefaultMovies = []model.Movie{
	{
		Title:       "The Dark Knight Returns",
		Description: "A gripping action thriller about a hero's return to save the city from chaos.",
		PosterURL:   "https://picsum.photos/seed/movie1/400/600",
		Genre:       "Action",
	},
	{
		Title:       "Love in Paris",
		Description: "A romantic tale of two strangers who meet under the Eiffel Tower.",
		PosterURL:   "https://picsum.photos/seed/movie2/400/600",
		Genre:       "Romance",
	},
	{
		Title:       "Galaxy Warriors",
		Description: "An epic space adventure across the universe to save humanity.",
		PosterURL:   "https://picsum.photos/seed/movie3/400/600",
		Genre:       "Sci-Fi",
	},
	{
		Title:       "The Haunted Manor",
		Description: "A chilling horror story set in an ancient mansion with dark secrets.",
		PosterURL:   "https://picsum.photos/seed/movie4/400/600",
		Genre:       "Horror",
	},
	{
		Title:       "Comedy Night Live",
		Description: "A hilarious ensemble comedy that will keep you laughing.",
		PosterURL:   "https://picsum.photos/seed/movie5/400/600",
		Genre:       "Comedy",
	},
}

// SeedMovies inserts DefaultMovies when the catalogue is empty and returns
// how many rows it created.
func SeedMovies(ctx context.Context, movies repository.MovieRepository, now time.Time) (int, error) {
	n, err := movies.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, m := range DefaultMovies {
		m.CreatedAt = now.UTC()
		if _, err := movies.Create(ctx, m); err != nil {
			return 0, err
		}
	}
	return len(DefaultMovies), nil
}
