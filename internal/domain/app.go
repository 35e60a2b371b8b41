package domain

// AppInfo is the store listing metadata for an app, as delivered by the
// scraper proxy. Zero values are tolerated everywhere downstream.
type AppInfo struct {
	AppID       string  `json:"app_id"`
	Title       string  `json:"title"`
	Developer   string  `json:"developer,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Ratings     int     `json:"ratings,omitempty"`
	Reviews     int     `json:"reviews,omitempty"`
	Installs    string  `json:"installs,omitempty"`
	Version     string  `json:"version,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
}
