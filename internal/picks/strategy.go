package picks

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/odds"
)

// RawPick is the fixed JSON schema the synthesis prompt requests from the
// model. Odds arrive as an int or a "+120"/"-150" string; confidence as a
// 0-1 fraction or 0-100 integer.
type RawPick struct {
	Player          string      `json:"player,omitempty"`
	Team            string      `json:"team,omitempty"`
	MatchTeams      string      `json:"match_teams"`
	Sport           string      `json:"sport"`
	BetType         string      `json:"bet_type"` // "player_prop", "moneyline", "spread", "total"
	PropType        string      `json:"prop_type,omitempty"`
	Recommendation  string      `json:"recommendation"` // "over"/"under", or side/team name
	Line            float64     `json:"line,omitempty"`
	Odds            interface{} `json:"odds"`
	Confidence      float64     `json:"confidence"`
	Reasoning       string      `json:"reasoning"`
	ROIEstimate     string      `json:"roi_estimate,omitempty"`
	ValuePercentage string      `json:"value_percentage,omitempty"`
	KeyFactors      []string    `json:"key_factors,omitempty"`
}

// Strategy supplies the candidate pool and reconciliation rules for one
// agent variant (props or teams). The synthesis pipeline itself is shared.
type Strategy interface {
	Name() string
	// CandidateBlock renders the pre-filtered candidate list for the
	// synthesis prompt.
	CandidateBlock() string
	// Reconcile ties a proposed pick back to a real, currently-available
	// line. A pick that cannot be tied to one returns an error and is
	// never stored.
	Reconcile(raw RawPick) (*models.AIPrediction, error)
	// CandidateCount reports how many candidates survived pre-filtering.
	CandidateCount() int
}

// Counting stats where "under 0.5" is treated as a degenerate proposition
// and always rejected.
var impossibleUnderStats = []string{
	"home run", "home_runs", "stolen base", "stolen_bases", "triple", "triples",
}

func isImpossibleUnder(propType string, line float64, recommendation string) bool {
	if !strings.EqualFold(recommendation, "under") || line > 0.5 {
		return false
	}
	lower := strings.ToLower(propType)
	for _, stat := range impossibleUnderStats {
		if strings.Contains(lower, stat) {
			return true
		}
	}
	return false
}

// PropsStrategy reconciles player-prop picks against the flat props view.
type PropsStrategy struct {
	props   []models.PlayerProp
	events  map[string]models.SportsEvent
	runID   string
	model   string
}

func NewPropsStrategy(props []models.PlayerProp, events []models.SportsEvent, maxOdds int, runID, model string) *PropsStrategy {
	eventIdx := make(map[string]models.SportsEvent, len(events))
	for _, ev := range events {
		eventIdx[ev.ID] = ev
	}

	// Long shots never reach the prompt.
	filtered := make([]models.PlayerProp, 0, len(props))
	for _, p := range props {
		if !p.Usable() {
			continue
		}
		inWindow := false
		if p.OverOdds != nil && odds.InWindow(*p.OverOdds, maxOdds) {
			inWindow = true
		}
		if p.UnderOdds != nil && odds.InWindow(*p.UnderOdds, maxOdds) {
			inWindow = true
		}
		if inWindow {
			filtered = append(filtered, p)
		}
	}

	return &PropsStrategy{props: filtered, events: eventIdx, runID: runID, model: model}
}

func (s *PropsStrategy) Name() string         { return "props" }
func (s *PropsStrategy) CandidateCount() int  { return len(s.props) }

func (s *PropsStrategy) CandidateBlock() string {
	var b strings.Builder
	for _, p := range s.props {
		over, under := "n/a", "n/a"
		if p.OverOdds != nil {
			over = odds.Canonical(*p.OverOdds)
		}
		if p.UnderOdds != nil {
			under = odds.Canonical(*p.UnderOdds)
		}
		b.WriteString(fmt.Sprintf("- %s (%s, %s): %s %.1f | over %s / under %s | %s\n",
			p.PlayerName, p.Team, p.Sport, p.PropType, p.Line, over, under, p.Bookmaker))
	}
	return b.String()
}

// Reconcile resolves the raw pick to an actual prop row: exact
// (player, prop type) match first, then case-insensitive substring fuzzy
// matching on the player name.
func (s *PropsStrategy) Reconcile(raw RawPick) (*models.AIPrediction, error) {
	prop := s.matchProp(raw.Player, raw.PropType)
	if prop == nil {
		return nil, fmt.Errorf("no available prop matches %q %q", raw.Player, raw.PropType)
	}

	side := strings.ToLower(raw.Recommendation)
	sideOdds := prop.SideOdds(side)
	if sideOdds == nil {
		return nil, fmt.Errorf("%s side of %s %s has no odds", side, prop.PlayerName, prop.PropType)
	}
	if isImpossibleUnder(prop.PropType, prop.Line, side) {
		return nil, fmt.Errorf("impossible proposition: under %.1f %s", prop.Line, prop.PropType)
	}

	event, ok := s.events[prop.EventID]
	if !ok {
		return nil, fmt.Errorf("prop for %s references unknown event %s", prop.PlayerName, prop.EventID)
	}

	meta, _ := json.Marshal(models.PredictionMetadata{
		RunID:      s.runID,
		Model:      s.model,
		KeyFactors: raw.KeyFactors,
		Reasoning:  raw.Reasoning,
	})

	return &models.AIPrediction{
		UserID:          models.AIUserID,
		MatchTeams:      fmt.Sprintf("%s @ %s", event.AwayTeam, event.HomeTeam),
		Pick:            fmt.Sprintf("%s %s %.1f %s", prop.PlayerName, titleSide(side), prop.Line, prop.PropType),
		Odds:            odds.Canonical(*sideOdds),
		Confidence:      odds.NormalizeConfidence(raw.Confidence),
		Sport:           event.Sport,
		EventTime:       event.StartTime,
		BetType:         "player_prop",
		Reasoning:       raw.Reasoning,
		LineValue:       prop.Line,
		PropMarketType:  prop.PropType,
		ROIEstimate:     ParsePercent(raw.ROIEstimate),
		ValuePercentage: ParsePercent(raw.ValuePercentage),
		Status:          "pending",
		Metadata:        datatypes.JSON(meta),
	}, nil
}

func (s *PropsStrategy) matchProp(player, propType string) *models.PlayerProp {
	// Exact (name, type) tuple first.
	for i := range s.props {
		if s.props[i].PlayerName == player && strings.EqualFold(s.props[i].PropType, propType) {
			return &s.props[i]
		}
	}
	// Fuzzy: case-insensitive substring either direction.
	lowerPlayer := strings.ToLower(player)
	for i := range s.props {
		candidate := strings.ToLower(s.props[i].PlayerName)
		if !strings.EqualFold(s.props[i].PropType, propType) {
			continue
		}
		if strings.Contains(candidate, lowerPlayer) || strings.Contains(lowerPlayer, candidate) {
			return &s.props[i]
		}
	}
	return nil
}

// TeamsStrategy reconciles team-level picks (moneyline/spread/total)
// against lines flattened out of event bookmaker metadata.
type TeamsStrategy struct {
	lines  []models.EventOdds
	events map[string]models.SportsEvent
	runID  string
	model  string
}

func NewTeamsStrategy(lines []models.EventOdds, events []models.SportsEvent, maxOdds int, runID, model string) *TeamsStrategy {
	eventIdx := make(map[string]models.SportsEvent, len(events))
	for _, ev := range events {
		eventIdx[ev.ID] = ev
	}
	filtered := make([]models.EventOdds, 0, len(lines))
	for _, l := range lines {
		if odds.InWindow(l.Price, maxOdds) {
			filtered = append(filtered, l)
		}
	}
	return &TeamsStrategy{lines: filtered, events: eventIdx, runID: runID, model: model}
}

func (s *TeamsStrategy) Name() string        { return "teams" }
func (s *TeamsStrategy) CandidateCount() int { return len(s.lines) }

func (s *TeamsStrategy) CandidateBlock() string {
	var b strings.Builder
	for _, l := range s.lines {
		point := ""
		if l.Point != nil {
			point = fmt.Sprintf(" %.1f", *l.Point)
		}
		b.WriteString(fmt.Sprintf("- %s @ %s (%s): %s %s%s at %s | %s\n",
			l.AwayTeam, l.HomeTeam, l.Sport, l.Market, l.Side, point, odds.Canonical(l.Price), l.Bookmaker))
	}
	return b.String()
}

func (s *TeamsStrategy) Reconcile(raw RawPick) (*models.AIPrediction, error) {
	market := marketKey(raw.BetType)
	line := s.matchLine(raw.Recommendation, raw.Team, market)
	if line == nil {
		return nil, fmt.Errorf("no available %s line matches %q", raw.BetType, raw.Recommendation)
	}

	event, ok := s.events[line.EventID]
	if !ok {
		return nil, fmt.Errorf("line references unknown event %s", line.EventID)
	}

	lineValue := 0.0
	pick := fmt.Sprintf("%s %s", line.Side, raw.BetType)
	if line.Point != nil {
		lineValue = *line.Point
		pick = fmt.Sprintf("%s %s %.1f", line.Side, raw.BetType, *line.Point)
	}

	meta, _ := json.Marshal(models.PredictionMetadata{
		RunID:      s.runID,
		Model:      s.model,
		KeyFactors: raw.KeyFactors,
		Reasoning:  raw.Reasoning,
	})

	return &models.AIPrediction{
		UserID:          models.AIUserID,
		MatchTeams:      fmt.Sprintf("%s @ %s", event.AwayTeam, event.HomeTeam),
		Pick:            pick,
		Odds:            odds.Canonical(line.Price),
		Confidence:      odds.NormalizeConfidence(raw.Confidence),
		Sport:           event.Sport,
		EventTime:       event.StartTime,
		BetType:         raw.BetType,
		Reasoning:       raw.Reasoning,
		LineValue:       lineValue,
		ROIEstimate:     ParsePercent(raw.ROIEstimate),
		ValuePercentage: ParsePercent(raw.ValuePercentage),
		Status:          "pending",
		Metadata:        datatypes.JSON(meta),
	}, nil
}

func (s *TeamsStrategy) matchLine(recommendation, team, market string) *models.EventOdds {
	want := recommendation
	if want == "" {
		want = team
	}
	// Exact side match within the requested market.
	for i := range s.lines {
		if s.lines[i].Market == market && s.lines[i].Side == want {
			return &s.lines[i]
		}
	}
	lowerWant := strings.ToLower(want)
	for i := range s.lines {
		if s.lines[i].Market != market {
			continue
		}
		side := strings.ToLower(s.lines[i].Side)
		if strings.Contains(side, lowerWant) || strings.Contains(lowerWant, side) {
			return &s.lines[i]
		}
	}
	return nil
}

func marketKey(betType string) string {
	switch strings.ToLower(betType) {
	case "moneyline", "h2h":
		return "h2h"
	case "spread", "spreads":
		return "spreads"
	case "total", "totals", "over/under":
		return "totals"
	}
	return strings.ToLower(betType)
}

func titleSide(side string) string {
	switch strings.ToLower(side) {
	case "over":
		return "Over"
	case "under":
		return "Under"
	}
	return side
}

// ParsePercent parses a percentage string ("7.5%", "12") defensively;
// malformed input yields 0.0 rather than an error.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0.0
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil {
		return 0.0
	}
	return v
}
