package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SportsEvent mirrors a sports_events row. Rows are created by an external
// ingestion job and are read-only to this system.
type SportsEvent struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	HomeTeam  string         `json:"home_team"`
	AwayTeam  string         `json:"away_team"`
	StartTime time.Time      `json:"start_time"`
	Sport     string         `json:"sport"`
	League    string         `json:"league"`
	Status    string         `json:"status"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
}

func (SportsEvent) TableName() string {
	return "sports_events"
}

// EventMetadata is the shape of the metadata JSONB blob, carrying nested
// bookmaker odds under full_data.bookmakers.
type EventMetadata struct {
	FullData struct {
		Bookmakers []Bookmaker `json:"bookmakers"`
	} `json:"full_data"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"` // "h2h", "spreads", "totals"
	Outcomes []Outcome `json:"outcomes"`
}

type Outcome struct {
	Name  string   `json:"name"` // team name, or "Over"/"Under"
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// EventOdds is one flattened bookmaker line derived from a SportsEvent's
// metadata. Derived lines are recomputed per request, never persisted.
type EventOdds struct {
	EventID   string   `json:"event_id"`
	HomeTeam  string   `json:"home_team"`
	AwayTeam  string   `json:"away_team"`
	Sport     string   `json:"sport"`
	Bookmaker string   `json:"bookmaker"`
	Market    string   `json:"market"`
	Side      string   `json:"side"`
	Point     *float64 `json:"point,omitempty"`
	Price     int      `json:"price"`
	StartTime time.Time `json:"start_time"`
}

// ParseMetadata decodes the event's metadata blob. A missing or malformed
// blob yields an empty metadata value, not an error: events without odds
// simply contribute no candidate lines.
func (e *SportsEvent) ParseMetadata() EventMetadata {
	var meta EventMetadata
	if len(e.Metadata) == 0 {
		return meta
	}
	_ = json.Unmarshal(e.Metadata, &meta)
	return meta
}

// FlattenOdds extracts every bookmaker/market line from the event metadata.
func (e *SportsEvent) FlattenOdds() []EventOdds {
	meta := e.ParseMetadata()
	var lines []EventOdds
	for _, bm := range meta.FullData.Bookmakers {
		for _, mkt := range bm.Markets {
			for _, out := range mkt.Outcomes {
				lines = append(lines, EventOdds{
					EventID:   e.ID,
					HomeTeam:  e.HomeTeam,
					AwayTeam:  e.AwayTeam,
					Sport:     e.Sport,
					Bookmaker: bm.Key,
					Market:    mkt.Key,
					Side:      out.Name,
					Point:     out.Point,
					Price:     out.Price,
					StartTime: e.StartTime,
				})
			}
		}
	}
	return lines
}

// HistoricalGame mirrors a historical_games row, used for team-level
// feature vectors.
type HistoricalGame struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	GameDate  time.Time `json:"game_date"`
}

func (HistoricalGame) TableName() string {
	return "historical_games"
}
