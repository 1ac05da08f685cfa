package models

import "time"

// Scraped dataset kinds.
const (
	ScrapedNews            = "news"
	ScrapedPlayerStats     = "player_stats"
	ScrapedTeamPerformance = "team_performance"
)

// ScrapedDataset is the envelope around one crawler output file. Exactly
// one of News, PlayerStats, TeamPerformance is populated, matching Kind.
type ScrapedDataset struct {
	Kind      string    `json:"kind"`
	Sport     string    `json:"sport"`
	Teams     []string  `json:"teams,omitempty"` // best-effort roster match
	FetchedAt time.Time `json:"fetched_at"`

	News            []NewsItem             `json:"news,omitempty"`
	PlayerStats     []PlayerStatBlock      `json:"player_stats,omitempty"`
	TeamPerformance []TeamPerformanceBlock `json:"team_performance,omitempty"`
}

// NewsItem is one scraped headline/article excerpt.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// PlayerStatBlock is one scraped player stat excerpt.
type PlayerStatBlock struct {
	PlayerName string             `json:"player_name"`
	Team       string             `json:"team,omitempty"`
	Stats      map[string]float64 `json:"stats"`
}

// TeamPerformanceBlock is one scraped team performance excerpt.
type TeamPerformanceBlock struct {
	Team    string             `json:"team"`
	Record  string             `json:"record,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Note    string             `json:"note,omitempty"`
}
