package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
)

const (
	DateLayout = "2006-01-02"

	geoLimit     = 6
	contentLimit = 10

	// FallbackGenre жанр по умолчанию для пустого каталога
	FallbackGenre = "Drama"

	geoPlaceholder     = "Waiting for traffic..."
	contentPlaceholder = "No content viewed yet"

	// Оценочные значения: длительность сессий не хранится
	estimatedSession    = "3m 12s"
	estimatedEngagement = "64.2%"
	estimatedTimeOnPage = "2m 30s"
	emptySession        = "0m 0s"
	emptyEngagement     = "0.0%"
	emptyTimeOnPage     = "0s"
)

var excludedPrefixes = []string{"/admin", "/api"}

// Snapshot счётчики, прочитанные из хранилища для одного отчёта
type Snapshot struct {
	Daily     []models.DailyCounter
	Countries []models.CountryCounter
	Paths     []models.ViewCounter
}

// Build сворачивает снимок счётчиков в отчёт. Чистая функция: не пишет,
// не завершается ошибкой, на пустых данных возвращает заглушки.
func Build(snap Snapshot, w Window, catalog []models.Movie, today time.Time) models.Report {
	today = truncateDay(today)

	traffic, total := buildTraffic(snap.Daily, w, today)

	kpis := models.KPIs{
		TotalViews:     total,
		AvgSession:     emptySession,
		EngagementRate: emptyEngagement,
		TopGenre:       TopGenre(catalog),
		Estimated:      true,
	}
	if total > 0 {
		kpis.AvgSession = estimatedSession
		kpis.EngagementRate = estimatedEngagement
	}

	return models.Report{
		Window:  w.String(),
		KPIs:    kpis,
		Traffic: traffic,
		Geo:     buildGeo(snap.Countries),
		Content: buildContent(snap.Paths, catalog),
	}
}

// Since первая дата (включительно), попадающая в окно
func Since(w Window, today time.Time) string {
	return truncateDay(today).AddDate(0, 0, -w.Days()).Format(DateLayout)
}

func buildTraffic(rows []models.DailyCounter, w Window, today time.Time) ([]models.DailyPoint, int64) {
	// Сумма только за последние w.Days() календарных дней, включая сегодня
	first := today.AddDate(0, 0, -(w.Days() - 1)).Format(DateLayout)
	until := today.Format(DateLayout)

	var total int64
	byDate := make(map[string]models.DailyCounter, len(rows))
	for _, row := range rows {
		// ISO-даты сравниваются лексикографически
		if row.Date < first || row.Date > until {
			continue
		}
		total += row.Views
		byDate[row.Date] = row
	}

	fill := w.DisplayDays()
	traffic := make([]models.DailyPoint, 0, fill)
	for i := fill - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		row := byDate[date]
		traffic = append(traffic, models.DailyPoint{
			Date:     date,
			Views:    row.Views,
			Sessions: row.Sessions,
		})
	}

	return traffic, total
}

func buildGeo(rows []models.CountryCounter) []models.CountryShare {
	sorted := append([]models.CountryCounter(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views != sorted[j].Views {
			return sorted[i].Views > sorted[j].Views
		}
		return sorted[i].Country < sorted[j].Country
	})
	if len(sorted) > geoLimit {
		sorted = sorted[:geoLimit]
	}

	if len(sorted) == 0 {
		return []models.CountryShare{{Country: geoPlaceholder}}
	}

	var total int64
	for _, row := range sorted {
		total += row.Views
	}

	geo := make([]models.CountryShare, 0, len(sorted))
	for _, row := range sorted {
		share := models.CountryShare{Country: row.Country, Views: row.Views}
		if total > 0 {
			share.Percentage = int(math.Round(float64(row.Views) * 100 / float64(total)))
		}
		geo = append(geo, share)
	}
	return geo
}

func buildContent(rows []models.ViewCounter, catalog []models.Movie) []models.ContentEngagement {
	titles := make(map[string]string, len(catalog))
	for _, m := range catalog {
		titles[m.Slug] = m.Title
	}

	sorted := append([]models.ViewCounter(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views != sorted[j].Views {
			return sorted[i].Views > sorted[j].Views
		}
		return sorted[i].Path < sorted[j].Path
	})

	content := make([]models.ContentEngagement, 0, contentLimit)
	for _, row := range sorted {
		if len(content) == contentLimit {
			break
		}
		if !IsTrackablePath(row.Path) || row.Path == "/" {
			continue
		}

		slug := lastSegment(row.Path)
		title, ok := titles[slug]
		if !ok || slug == "" {
			title = row.Path
		}
		content = append(content, models.ContentEngagement{
			Title:   title,
			Slug:    slug,
			Views:   row.Views,
			AvgTime: estimatedTimeOnPage,
		})
	}

	if len(content) == 0 {
		return []models.ContentEngagement{{Title: contentPlaceholder, AvgTime: emptyTimeOnPage}}
	}
	return content
}

// TopGenre самый частый жанр каталога; при равенстве побеждает встреченный первым
func TopGenre(catalog []models.Movie) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range catalog {
		for _, g := range m.Genres {
			if counts[g] == 0 {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	best, bestCount := FallbackGenre, 0
	for _, g := range order {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}
	return best
}

// IsTrackablePath false для административных и API-путей
func IsTrackablePath(path string) bool {
	if path == "" {
		return false
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
