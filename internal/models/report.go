package models

type KPIs struct {
	TotalViews     int64  `json:"totalViews"`
	AvgSession     string `json:"avgSession"`
	EngagementRate string `json:"engagementRate"`
	TopGenre       string `json:"topGenre"`
	// Estimated avgSession и engagementRate не измеряются, это оценки для витрины
	Estimated bool `json:"estimated"`
}

type DailyPoint struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Sessions int64  `json:"sessions"`
}

type CountryShare struct {
	Country    string `json:"country"`
	Views      int64  `json:"views"`
	Percentage int    `json:"percentage"`
}

type ContentEngagement struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Views   int64  `json:"views"`
	AvgTime string `json:"avgTime"`
}

// Report сводка аналитики за окно; не сохраняется, строится на каждый запрос
type Report struct {
	Window    string              `json:"window"`
	Simulated bool                `json:"simulated"`
	KPIs      KPIs                `json:"kpis"`
	Traffic   []DailyPoint        `json:"traffic"`
	Geo       []CountryShare      `json:"geo"`
	Content   []ContentEngagement `json:"content"`
}
