// Package analytics computes the dashboard figures straight from the dataset.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/bull/imdb-assistant/internal/dataset"
)

// TopGenreLimit is the number of genres shown on the dashboard.
const TopGenreLimit = 10

// GenreCount is how many movies list a genre.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// YearCount is how many movies were released in a year.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// RatingCount is how many movies carry a rating.
type RatingCount struct {
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}

// Dashboard holds every figure of the analytics view.
type Dashboard struct {
	TotalMovies        int           `json:"total_movies"`
	AverageRating      float64       `json:"average_rating"`
	HighestRating      float64       `json:"highest_rating"`
	TopGenres          []GenreCount  `json:"top_genres"`
	MoviesPerYear      []YearCount   `json:"movies_per_year"`
	RatingDistribution []RatingCount `json:"rating_distribution"`
}

// Compute aggregates records. It never fails; an empty input yields zeros.
func Compute(records []dataset.MovieRecord) Dashboard {
	d := Dashboard{
		TotalMovies:        len(records),
		TopGenres:          GenreFrequency(records, TopGenreLimit),
		MoviesPerYear:      moviesPerYear(records),
		RatingDistribution: ratingDistribution(records),
	}
	if len(records) == 0 {
		return d
	}

	var sum float64
	d.HighestRating = records[0].Rating
	for _, r := range records {
		sum += r.Rating
		d.HighestRating = max(d.HighestRating, r.Rating)
	}
	d.AverageRating = math.Round(sum/float64(len(records))*100) / 100
	return d
}

// GenreFrequency splits each record's comma separated genres, counts them and
// returns the limit most frequent. Ties keep first-appearance order.
// limit <= 0 returns every genre.
func GenreFrequency(records []dataset.MovieRecord, limit int) []GenreCount {
	index := make(map[string]int)
	counts := []GenreCount{}
	for _, r := range records {
		for _, genre := range strings.Split(r.Genre, ",") {
			genre = strings.TrimSpace(genre)
			if genre == "" {
				continue
			}
			if i, ok := index[genre]; ok {
				counts[i].Count++
				continue
			}
			index[genre] = len(counts)
			counts = append(counts, GenreCount{Genre: genre, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// moviesPerYear counts records per release year, ordered by year as text.
func moviesPerYear(records []dataset.MovieRecord) []YearCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Year]++
	}

	years := make([]YearCount, 0, len(counts))
	for year, n := range counts {
		years = append(years, YearCount{Year: year, Count: n})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	return years
}

func ratingDistribution(records []dataset.MovieRecord) []RatingCount {
	counts := make(map[float64]int)
	for _, r := range records {
		counts[r.Rating]++
	}

	ratings := make([]RatingCount, 0, len(counts))
	for rating, n := range counts {
		ratings = append(ratings, RatingCount{Rating: rating, Count: n})
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].Rating < ratings[j].Rating })
	return ratings
}
