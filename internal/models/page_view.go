package models

import (
	"time"
)

// PageView одно засчитанное посещение страницы
type PageView struct {
	Path     string    `json:"path"`
	Country  string    `json:"country"`
	ViewedAt time.Time `json:"viewed_at"`
}

type PageViewEvent struct {
	Path    string
	Country string
}

// ViewCounter накопительный счётчик просмотров по пути
type ViewCounter struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// DailyCounter счётчики за календарный день (YYYY-MM-DD)
type DailyCounter struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Sessions int64  `json:"sessions"`
}

// CountryCounter счётчик по ISO-коду страны или "Unknown"
type CountryCounter struct {
	Country string `json:"country"`
	Views   int64  `json:"views"`
}
