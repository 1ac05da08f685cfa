package picks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/parlayiq/picks-engine/internal/models"
)

// PredictionStore is the persistence surface the publisher needs.
type PredictionStore interface {
	EventForMatchup(ctx context.Context, homeTeam, awayTeam, sport string) (*models.SportsEvent, error)
	InsertPredictions(ctx context.Context, rows []models.AIPrediction) (stored, failed int)
}

// Publisher validates a batch of picks against the live schedule and
// writes the survivors. Validation is deliberately paranoid: a single
// fabricated game aborts the entire batch, because one hallucinated row
// means the model cannot be trusted for the rest of the run.
type Publisher struct {
	store    PredictionStore
	logger   *logrus.Logger
	testMode bool
}

func NewPublisher(store PredictionStore, logger *logrus.Logger, testMode bool) *Publisher {
	return &Publisher{store: store, logger: logger, testMode: testMode}
}

// ErrHallucinatedGame aborts a batch whose pick references a game that is
// not on the schedule.
type ErrHallucinatedGame struct {
	MatchTeams string
	Sport      string
}

func (e *ErrHallucinatedGame) Error() string {
	return fmt.Sprintf("pick references a game not on the schedule: %q (%s)", e.MatchTeams, e.Sport)
}

// Publish validates and stores a batch. Per-row insert failures degrade
// the result; a hallucinated matchup fails the whole call.
func (p *Publisher) Publish(ctx context.Context, preds []models.AIPrediction) (*models.StoreResult, error) {
	result := &models.StoreResult{Submitted: len(preds)}
	if len(preds) == 0 {
		return result, nil
	}

	valid := make([]models.AIPrediction, 0, len(preds))
	for i := range preds {
		pred := preds[i]
		home, away, err := ParseMatchup(pred.MatchTeams)
		if err != nil {
			return nil, fmt.Errorf("unparseable match_teams %q: %w", pred.MatchTeams, err)
		}

		if conflict := crossSportConflict(pred.Sport, home, away); conflict != "" {
			result.Errors++
			result.Messages = append(result.Messages, fmt.Sprintf("%s: team %q belongs to a different sport", pred.MatchTeams, conflict))
			p.logger.WithFields(logrus.Fields{
				"match_teams": pred.MatchTeams,
				"sport":       pred.Sport,
				"team":        conflict,
			}).Warn("Rejecting cross-sport pick")
			continue
		}

		event, err := p.store.EventForMatchup(ctx, home, away, pred.Sport)
		if err != nil {
			return nil, fmt.Errorf("schedule lookup for %q: %w", pred.MatchTeams, err)
		}
		if event == nil {
			return nil, &ErrHallucinatedGame{MatchTeams: pred.MatchTeams, Sport: pred.Sport}
		}

		// Anchor the row to the scheduled game, not the model's rendering
		// of it.
		pred.MatchTeams = fmt.Sprintf("%s @ %s", event.AwayTeam, event.HomeTeam)
		pred.EventTime = event.StartTime
		pred.Reasoning = ScrubBrands(pred.Reasoning)
		pred.Pick = ScrubBrands(pred.Pick)
		pred.Metadata = scrubMetadata(pred.Metadata)
		valid = append(valid, pred)
	}

	if p.testMode {
		p.logger.WithField("count", len(valid)).Info("Test mode: skipping insert")
		result.Messages = append(result.Messages, "test mode: nothing stored")
		return result, nil
	}

	stored, failed := p.store.InsertPredictions(ctx, valid)
	result.Stored = stored
	result.Errors += failed
	p.logger.WithFields(logrus.Fields{
		"submitted": result.Submitted,
		"stored":    result.Stored,
		"errors":    result.Errors,
	}).Info("Pick batch published")
	return result, nil
}

// ParseMatchup splits "Away @ Home" or "Home vs Away" into its teams.
func ParseMatchup(s string) (home, away string, err error) {
	if i := strings.Index(s, " @ "); i >= 0 {
		away = strings.TrimSpace(s[:i])
		home = strings.TrimSpace(s[i+3:])
	} else if i := strings.Index(strings.ToLower(s), " vs "); i >= 0 {
		home = strings.TrimSpace(s[:i])
		away = strings.TrimSpace(s[i+4:])
	} else if i := strings.Index(strings.ToLower(s), " vs. "); i >= 0 {
		home = strings.TrimSpace(s[:i])
		away = strings.TrimSpace(s[i+5:])
	}
	if home == "" || away == "" {
		return "", "", fmt.Errorf("expected \"Away @ Home\" or \"Home vs Away\", got %q", s)
	}
	return home, away, nil
}

// brandScrub maps data-vendor names that must never surface in
// user-visible text to a neutral phrase.
var brandScrub = []string{"StatMuse", "statmuse", "Statmuse", "STATMUSE"}

const brandReplacement = "our stats engine"

// ScrubBrands removes third-party vendor names from user-visible text.
func ScrubBrands(text string) string {
	for _, brand := range brandScrub {
		text = strings.ReplaceAll(text, brand, brandReplacement)
	}
	return text
}

// scrubMetadata applies the brand scrub to the free-text fields nested in
// the metadata blob. Malformed metadata passes through untouched.
func scrubMetadata(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return raw
	}
	var meta models.PredictionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return raw
	}
	meta.Reasoning = ScrubBrands(meta.Reasoning)
	for i, src := range meta.ResearchSources {
		meta.ResearchSources[i] = ScrubBrands(src)
	}
	for i, factor := range meta.KeyFactors {
		meta.KeyFactors[i] = ScrubBrands(factor)
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return raw
	}
	return datatypes.JSON(out)
}

// sportTeamKeywords holds distinctive team-name fragments per sport, used
// to reject picks that pair a team with the wrong league.
var sportTeamKeywords = map[string][]string{
	"WNBA": {"Aces", "Liberty", "Storm", "Sky", "Fever", "Mercury", "Lynx", "Sun", "Wings", "Mystics", "Sparks", "Dream", "Valkyries"},
	"MLB":  {"Yankees", "Red Sox", "Dodgers", "Giants", "Cubs", "Mets", "Braves", "Astros", "Phillies", "Padres", "Orioles", "Guardians", "Mariners", "Rangers", "Twins", "Royals", "Tigers", "Brewers", "Cardinals", "Pirates", "Reds", "Marlins", "Nationals", "Rays", "Blue Jays", "White Sox", "Angels", "Athletics", "Rockies", "Diamondbacks"},
}

// crossSportConflict returns the offending team name when a team clearly
// belongs to a different sport than the pick claims, or "" when the pick
// is consistent. Unknown teams pass: the schedule lookup is the real gate.
func crossSportConflict(sport, home, away string) string {
	for _, team := range []string{home, away} {
		for otherSport, keywords := range sportTeamKeywords {
			if strings.EqualFold(otherSport, sport) {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(team, kw) && !teamKnownIn(sport, team) {
					return team
				}
			}
		}
	}
	return ""
}

func teamKnownIn(sport, team string) bool {
	for _, kw := range sportTeamKeywords[strings.ToUpper(sport)] {
		if strings.Contains(team, kw) {
			return true
		}
	}
	return false
}
