package analytics

import (
	"strconv"
	"strings"
)

const (
	// allTimeDays ограничивает "всё время", чтобы отчёт оставался конечным
	allTimeDays = 365
	// displayDays максимальная длина ряда для графика
	displayDays = 31
)

// Window окно отчёта: либо ограниченное число дней, либо "всё время".
// Нулевое значение невалидно.
type Window struct {
	days    int
	allTime bool
}

// Bounded окно в days календарных дней, days > 0
func Bounded(days int) (Window, error) {
	if days <= 0 {
		return Window{}, ErrInvalidWindow
	}
	return Window{days: days}, nil
}

func AllTime() Window {
	return Window{allTime: true}
}

// ParseWindow разбирает параметр запроса: положительное число дней,
// "all" или устаревший маркер "-1"
func ParseWindow(raw string) (Window, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "all", "-1":
		return AllTime(), nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return Window{}, ErrInvalidWindow
	}
	return Bounded(days)
}

// Days глубина выборки в днях с учётом "всего времени"
func (w Window) Days() int {
	if w.allTime {
		return allTimeDays
	}
	return w.days
}

func (w Window) IsAllTime() bool {
	return w.allTime
}

func (w Window) Valid() bool {
	return w.allTime || w.days > 0
}

// DisplayDays длина ряда для графика
func (w Window) DisplayDays() int {
	return min(w.Days(), displayDays)
}

func (w Window) String() string {
	if w.allTime {
		return "all"
	}
	return strconv.Itoa(w.days)
}
