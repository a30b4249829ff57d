// Package movies is a client for the external movie catalog: category
// listings with pagination, per-movie details, and image URL construction.
package movies

// Category is a catalog listing category.
type Category string

const (
	CategoryPopular  Category = "popular"
	CategoryTopRated Category = "top_rated"
)

// Movie is a catalog entry. Only the fields the app reads are modeled.
type Movie struct {
	ID               int     `json:"id"`
	Adult            bool    `json:"adult"`
	Title            string  `json:"title"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	OriginalTitle    string  `json:"original_title"`
	PosterPath       string  `json:"poster_path"`
	Overview         string  `json:"overview"`
	Popularity       float64 `json:"popularity"`
	Video            bool    `json:"video"`
	VoteCount        int     `json:"vote_count"`
	VoteAverage      float64 `json:"vote_average"`
	ReleaseDate      string  `json:"release_date"`
	BackdropPath     string  `json:"backdrop_path"`
}

// Page is one page of a category listing.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}
