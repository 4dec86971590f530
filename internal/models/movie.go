package models

import (
	"time"
)

type TechnicalScores struct {
	Story       float64 `json:"story"`
	Acting      float64 `json:"acting"`
	Pace        float64 `json:"pace"`
	Ending      float64 `json:"ending"`
	Originality float64 `json:"originality"`
	Audiovisual float64 `json:"audiovisual"`
}

type CastMember struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Movie рецензия из каталога; slug уникален и используется в URL
type Movie struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug" binding:"omitempty,slug"`
	Title           string          `json:"title" binding:"required"`
	Year            int             `json:"year"`
	Duration        *int            `json:"duration,omitempty"`
	Director        string          `json:"director"`
	PosterURL       string          `json:"posterUrl"`
	BackdropURL     string          `json:"backdropUrl,omitempty"`
	Rating          float64         `json:"rating" binding:"gte=0,lte=10"`
	Certification   string          `json:"certification,omitempty"`
	SpokenLanguages []string        `json:"spokenLanguages,omitempty"`
	ReviewShort     string          `json:"reviewShort"`
	ReviewLong      string          `json:"reviewLong"`
	Plot            string          `json:"plot,omitempty"`
	Review15Lines   []string        `json:"review15Lines,omitempty"`
	Genres          []string        `json:"genres"`
	TechnicalScores TechnicalScores `json:"technicalScores"`
	Awards          []string        `json:"awards,omitempty"`
	ReleaseDate     string          `json:"releaseDate,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
	Cast            []CastMember    `json:"cast,omitempty"`
	TrailerURL      string          `json:"trailerUrl,omitempty"`
	Streaming       []string        `json:"streaming,omitempty"`
}

// HasGenre проверяет наличие жанра у фильма
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// MoviePatch частичное обновление: nil-поля не меняются
type MoviePatch struct {
	Title           *string          `json:"title,omitempty"`
	Year            *int             `json:"year,omitempty"`
	Duration        *int             `json:"duration,omitempty"`
	Director        *string          `json:"director,omitempty"`
	PosterURL       *string          `json:"posterUrl,omitempty"`
	BackdropURL     *string          `json:"backdropUrl,omitempty"`
	Rating          *float64         `json:"rating,omitempty" binding:"omitempty,gte=0,lte=10"`
	Certification   *string          `json:"certification,omitempty"`
	SpokenLanguages []string         `json:"spokenLanguages,omitempty"`
	ReviewShort     *string          `json:"reviewShort,omitempty"`
	ReviewLong      *string          `json:"reviewLong,omitempty"`
	Plot            *string          `json:"plot,omitempty"`
	Review15Lines   []string         `json:"review15Lines,omitempty"`
	Genres          []string         `json:"genres,omitempty"`
	TechnicalScores *TechnicalScores `json:"technicalScores,omitempty"`
	Awards          []string         `json:"awards,omitempty"`
	ReleaseDate     *string          `json:"releaseDate,omitempty"`
	Cast            []CastMember     `json:"cast,omitempty"`
	TrailerURL      *string          `json:"trailerUrl,omitempty"`
	Streaming       []string         `json:"streaming,omitempty"`
}

// MovieFilter параметры выборки библиотеки
type MovieFilter struct {
	Genre  string
	Search string
	Sort   string // date, year, rating, alphabetical
}
