package tmdb

import (
	"strconv"
)

type findResponse struct {
	MovieResults []struct {
		ID int `json:"id"`
	} `json:"movie_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SpokenLanguage struct {
	EnglishName string `json:"english_name"`
	ISO6391     string `json:"iso_639_1"`
}

type CastCredit struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type CrewCredit struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

type Release struct {
	Certification string `json:"certification"`
}

type CountryReleases struct {
	Country      string    `json:"iso_3166_1"`
	ReleaseDates []Release `json:"release_dates"`
}

type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// MovieDetails ответ movie/{id} с append_to_response=credits,release_dates
type MovieDetails struct {
	ID              int              `json:"id"`
	Title           string           `json:"title"`
	OriginalTitle   string           `json:"original_title"`
	ReleaseDate     string           `json:"release_date"`
	Runtime         int              `json:"runtime"`
	Overview        string           `json:"overview"`
	PosterPath      string           `json:"poster_path"`
	BackdropPath    string           `json:"backdrop_path"`
	Genres          []Genre          `json:"genres"`
	SpokenLanguages []SpokenLanguage `json:"spoken_languages"`
	Credits         Credits          `json:"credits"`
	ReleaseDates    ReleaseDates     `json:"release_dates"`
}

// Director первый участник съёмочной группы с job=Director
func (d *MovieDetails) Director() string {
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			return c.Name
		}
	}
	return "Unknown"
}

// Certification возрастной рейтинг первого релиза в стране
func (d *MovieDetails) Certification(country string) string {
	for _, r := range d.ReleaseDates.Results {
		if r.Country == country && len(r.ReleaseDates) > 0 {
			return r.ReleaseDates[0].Certification
		}
	}
	return ""
}

// Year год из release_date (YYYY-MM-DD); 0, если дата неизвестна
func (d *MovieDetails) Year() int {
	if len(d.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(d.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
