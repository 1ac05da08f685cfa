package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// PlayerGameStat mirrors a player_game_stats row: one game's stat blob for
// one player, ordered by the embedded game_date field. Read-only; consumed
// most-recent-first by the ML feature builder.
type PlayerGameStat struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	PlayerID string         `json:"player_id"`
	EventID  *string        `json:"event_id"`
	Stats    datatypes.JSON `gorm:"type:jsonb" json:"stats"`
}

func (PlayerGameStat) TableName() string {
	return "player_game_stats"
}

// StatMap decodes the stats blob into a flat key -> number map, dropping
// non-numeric values (game_date and other string keys stay accessible via
// StatString).
func (s *PlayerGameStat) StatMap() map[string]float64 {
	var raw map[string]interface{}
	if err := json.Unmarshal(s.Stats, &raw); err != nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

// StatString returns a string-valued key from the stats blob, "" when
// absent or non-string.
func (s *PlayerGameStat) StatString(key string) string {
	var raw map[string]interface{}
	if err := json.Unmarshal(s.Stats, &raw); err != nil {
		return ""
	}
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
