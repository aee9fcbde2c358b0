package catalog

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenresResponse is the body of the genre list endpoint.
type GenresResponse struct {
	Genres []Genre `json:"genres"`
}

// Movie is a movie as returned by list, search and details endpoints.
// List endpoints only fill GenreIDs; details fill Genres, Runtime and IMDbID.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Runtime          *int    `json:"runtime,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	IMDbID           string  `json:"imdb_id,omitempty"`
	Adult            bool    `json:"adult,omitempty"`
}

// MovieDetails is the body of the movie details endpoint.
type MovieDetails struct {
	Movie
	Tagline  string `json:"tagline,omitempty"`
	Status   string `json:"status,omitempty"`
	Homepage string `json:"homepage,omitempty"`
	Budget   int64  `json:"budget"`
	Revenue  int64  `json:"revenue"`
}

// MovieResponse is a page of movies.
type MovieResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// EmptyPage is returned by fail-soft list calls.
func EmptyPage() MovieResponse {
	return MovieResponse{Page: 1, Results: []Movie{}}
}

// Credits holds cast and crew of a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember represents a cast member
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// CrewMember represents a crew member
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Video is a trailer, teaser or clip hosted on an external site.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// VideosResponse is the body of the videos endpoint.
type VideosResponse struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// Filters narrows a discover request. Query is only used by search.
type Filters struct {
	Genres        []int   `json:"genres,omitempty"`
	YearRange     *[2]int `json:"yearRange,omitempty"`
	MinRating     float64 `json:"minRating,omitempty"`
	Language      string  `json:"language,omitempty"`
	Runtime       *[2]int `json:"runtime,omitempty"`
	Certification string  `json:"certification,omitempty"`
	SortBy        string  `json:"sortBy,omitempty"`
	Page          int     `json:"page,omitempty"`
	Query         string  `json:"query,omitempty"`
}
