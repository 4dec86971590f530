package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/models"
)

var demoGeo = []struct {
	country string
	share   float64
}{
	{"Netherlands", 0.45},
	{"Belgium", 0.20},
	{"United States", 0.15},
	{"United Kingdom", 0.10},
	{"Germany", 0.05},
	{"Others", 0.05},
}

// Simulate демо-отчёт с правдоподобными числами. Вызывающая сторона решает,
// когда его показывать; агрегатор сам никогда не подставляет демо-данные.
func Simulate(w Window, catalog []models.Movie, today time.Time, rng *rand.Rand) models.Report {
	today = truncateDay(today)
	days := w.Days()

	scale := 1.0
	switch {
	case w.IsAllTime():
		scale = 1.5
	case days > 30:
		scale = 1.2
	}

	traffic := make([]models.DailyPoint, 0, w.DisplayDays())
	var total int64
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		boost := 1.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			boost = 1.4
		}
		factor := 0.8 + rng.Float64()*0.4
		views := int64(math.Floor((400 + math.Sin(float64(i)/2)*100) * boost * factor * scale))
		sessions := int64(math.Floor(float64(views) * (0.6 + rng.Float64()*0.1)))

		total += views
		if i >= w.DisplayDays() {
			continue
		}
		traffic = append(traffic, models.DailyPoint{
			Date:     date.Format(DateLayout),
			Views:    views,
			Sessions: sessions,
		})
	}

	geo := make([]models.CountryShare, 0, len(demoGeo))
	for _, g := range demoGeo {
		geo = append(geo, models.CountryShare{
			Country:    g.country,
			Views:      int64(math.Floor(float64(total) * g.share)),
			Percentage: int(math.Round(g.share * 100)),
		})
	}

	var content []models.ContentEngagement
	for i, m := range catalog {
		if i == 5 {
			break
		}
		views := (8000 - float64(i)*1200) * (float64(days) / 30) * (0.8 + rng.Float64()*0.4)
		content = append(content, models.ContentEngagement{
			Title:   m.Title,
			Slug:    m.Slug,
			Views:   int64(math.Floor(views)),
			AvgTime: fmt.Sprintf("%dm %ds", 3+rng.IntN(4), rng.IntN(60)),
		})
	}
	if len(content) == 0 {
		content = []models.ContentEngagement{{Title: contentPlaceholder, AvgTime: emptyTimeOnPage}}
	}

	return models.Report{
		Window:    w.String(),
		Simulated: true,
		KPIs: models.KPIs{
			TotalViews:     total,
			AvgSession:     fmt.Sprintf("%dm %ds", 2+rng.IntN(4), rng.IntN(60)),
			EngagementRate: fmt.Sprintf("%.1f%%", 58+rng.Float64()*15),
			TopGenre:       TopGenre(catalog),
			Estimated:      true,
		},
		Traffic: traffic,
		Geo:     geo,
		Content: content,
	}
}
