package models

// Player mirrors a players row.
type Player struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Name  string `json:"name"`
	Team  string `json:"team"`
	Sport string `json:"sport"`
}

func (Player) TableName() string {
	return "players"
}

// PropType mirrors a player_prop_types lookup row, mapping an internal
// stat key to a display name.
type PropType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StatKey     string `json:"stat_key"`
	DisplayName string `json:"display_name"`
}

func (PropType) TableName() string {
	return "player_prop_types"
}

// PlayerProp is one row of the pre-joined player_props_v2_flat_quick
// fast-path view. Over and under odds are independently nullable; a row
// with both nil is meaningless and is filtered at the store boundary.
type PlayerProp struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	EventID    string   `json:"event_id"`
	PlayerName string   `json:"player_name"`
	Team       string   `json:"team"`
	Sport      string   `json:"sport"`
	PropType   string   `json:"prop_type"`
	StatKey    string   `json:"stat_key"`
	Line       float64  `json:"line"`
	OverOdds   *int     `json:"over_odds"`
	UnderOdds  *int     `json:"under_odds"`
	Bookmaker  string   `json:"bookmaker"`
}

func (PlayerProp) TableName() string {
	return "player_props_v2_flat_quick"
}

// Usable reports whether the prop has at least one priced side.
func (p *PlayerProp) Usable() bool {
	return p.OverOdds != nil || p.UnderOdds != nil
}

// SideOdds returns the odds for "over" or "under", nil when that side is
// unpriced.
func (p *PlayerProp) SideOdds(side string) *int {
	switch side {
	case "over", "Over", "OVER":
		return p.OverOdds
	case "under", "Under", "UNDER":
		return p.UnderOdds
	}
	return nil
}
