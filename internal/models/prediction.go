package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIUserID is the fixed system identifier stamped on every generated pick.
const AIUserID = "ai-picks-engine"

// AIPrediction is the sole durable output of the pipeline, one
// ai_predictions row per stored pick.
type AIPrediction struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         string         `json:"user_id"`
	MatchTeams     string         `json:"match_teams"` // "Away @ Home" or "Home vs Away"
	Pick           string         `json:"pick"`
	Odds           string         `json:"odds"` // canonical American odds string
	Confidence     int            `json:"confidence"` // 0-100
	Sport          string         `json:"sport"`
	EventTime      time.Time      `json:"event_time"`
	BetType        string         `json:"bet_type"`
	Reasoning      string         `json:"reasoning"`
	LineValue      float64        `json:"line_value"`
	PropMarketType string         `json:"prop_market_type"`
	ROIEstimate    float64        `json:"roi_estimate"`
	ValuePercentage float64       `json:"value_percentage"`
	Status         string         `json:"status"` // "pending" at creation
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (AIPrediction) TableName() string {
	return "ai_predictions"
}

// PredictionMetadata is the shape of the metadata JSONB blob.
type PredictionMetadata struct {
	RunID           string   `json:"run_id"`
	Model           string   `json:"model"`
	KeyFactors      []string `json:"key_factors,omitempty"`
	ResearchSources []string `json:"research_sources,omitempty"`
	IsParlay        bool     `json:"is_parlay,omitempty"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

// StoreResult reports the outcome of a batch store call. A batch can
// partially succeed; the hallucination check is the one failure that
// aborts the whole call.
type StoreResult struct {
	Submitted int      `json:"submitted"`
	Stored    int      `json:"stored"`
	Errors    int      `json:"errors"`
	Messages  []string `json:"messages,omitempty"`
}
