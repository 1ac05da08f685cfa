// Package store is the data access layer over the shared relational
// schema: upcoming events, derived odds, player props, player game logs,
// and prediction inserts. Query errors are logged and surfaced as empty
// results; nothing here panics or propagates a raw query error upward in
// normal operation.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/database"
)

type Store struct {
	db     *database.DB
	logger *logrus.Logger
}

func New(db *database.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DayWindow computes the UTC query window for a local calendar day: from
// local midnight of day to local midnight of day+1, converted to UTC.
// Events starting exactly at the window open are included; events at the
// window close are excluded.
func DayWindow(day time.Time, loc *time.Location) (time.Time, time.Time) {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// ClampTargetDate keeps a requested date within ±3 days of the reference
// unless the caller explicitly overrides the sanity check.
func ClampTargetDate(target, now time.Time, override bool) time.Time {
	if override {
		return target
	}
	diff := target.Sub(now)
	if diff > 3*24*time.Hour {
		return now.Add(3 * 24 * time.Hour)
	}
	if diff < -3*24*time.Hour {
		return now.Add(-3 * 24 * time.Hour)
	}
	return target
}

// UpcomingEvents returns games within the local-day window for day,
// optionally filtered by sport with a three-tier fallback: sport column,
// then league column, then no filter at all. With excludeStarted set,
// games whose start time has already passed are dropped; a game with an
// unparseable (zero) start time is kept rather than dropped.
func (s *Store) UpcomingEvents(ctx context.Context, day time.Time, loc *time.Location, sport string, limit int, excludeStarted bool) []models.SportsEvent {
	start, end := DayWindow(day, loc)

	events := s.queryEvents(ctx, start, end, "sport", sport, limit)
	if len(events) == 0 && sport != "" {
		events = s.queryEvents(ctx, start, end, "league", sport, limit)
	}
	if len(events) == 0 && sport != "" {
		events = s.queryEvents(ctx, start, end, "", "", limit)
	}

	if !excludeStarted {
		return events
	}

	now := time.Now().UTC()
	kept := events[:0]
	for _, ev := range events {
		// Fail open: a row whose timestamp did not parse keeps its slot.
		if ev.StartTime.IsZero() || !ev.StartTime.Before(now) {
			kept = append(kept, ev)
		}
	}
	return kept
}

func (s *Store) queryEvents(ctx context.Context, start, end time.Time, column, value string, limit int) []models.SportsEvent {
	var events []models.SportsEvent
	q := s.db.WithContext(ctx).
		Where("start_time >= ? AND start_time < ?", start, end).
		Order("start_time ASC")
	if column != "" && value != "" {
		q = q.Where(fmt.Sprintf("%s = ?", column), value)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		s.logger.WithError(err).WithField("filter_column", column).Error("Failed to query sports events")
		return nil
	}
	return events
}

// EventForMatchup finds the event whose home/away teams exactly match, used
// as the anti-hallucination check before inserts. Sport narrows the match
// when provided.
func (s *Store) EventForMatchup(ctx context.Context, homeTeam, awayTeam, sport string) (*models.SportsEvent, error) {
	var event models.SportsEvent
	q := s.db.WithContext(ctx).
		Where("home_team = ? AND away_team = ?", homeTeam, awayTeam)
	if sport != "" {
		q = q.Where("sport = ?", sport)
	}
	if err := q.First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		s.logger.WithError(err).Error("Failed to query event for matchup")
		return nil, err
	}
	return &event, nil
}

// OddsForEvents flattens bookmaker metadata from the given events into
// candidate lines.
func (s *Store) OddsForEvents(events []models.SportsEvent) []models.EventOdds {
	var lines []models.EventOdds
	for i := range events {
		lines = append(lines, events[i].FlattenOdds()...)
	}
	return lines
}

// PropsForEvents returns usable player props for the given event ids. Rows
// with both odds null are filtered here, at the boundary.
func (s *Store) PropsForEvents(ctx context.Context, eventIDs []string) []models.PlayerProp {
	if len(eventIDs) == 0 {
		return nil
	}
	var props []models.PlayerProp
	err := s.db.WithContext(ctx).
		Where("event_id IN ?", eventIDs).
		Find(&props).Error
	if err != nil {
		s.logger.WithError(err).Error("Failed to query player props")
		return nil
	}
	usable := props[:0]
	for _, p := range props {
		if p.Usable() {
			usable = append(usable, p)
		}
	}
	return usable
}

// RecentPlayerStats returns up to n most recent stat rows for a player,
// ordered by the game_date field embedded in the stats blob.
func (s *Store) RecentPlayerStats(ctx context.Context, playerID string, n int) []models.PlayerGameStat {
	if n <= 0 {
		n = 10
	}
	var rows []models.PlayerGameStat
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("stats->>'game_date' DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		s.logger.WithError(err).WithField("player_id", playerID).Error("Failed to query player game stats")
		return nil
	}
	return rows
}

// FindPlayer resolves a player by exact name, then by case-insensitive
// substring with team/sport narrowing.
func (s *Store) FindPlayer(ctx context.Context, name, team, sport string) (*models.Player, error) {
	var player models.Player
	q := s.db.WithContext(ctx).Where("name = ?", name)
	if sport != "" {
		q = q.Where("sport = ?", sport)
	}
	if err := q.First(&player).Error; err == nil {
		return &player, nil
	} else if err != gorm.ErrRecordNotFound {
		s.logger.WithError(err).Error("Failed to query player")
		return nil, err
	}

	q = s.db.WithContext(ctx).Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	if team != "" {
		q = q.Where("team = ?", team)
	}
	if sport != "" {
		q = q.Where("sport = ?", sport)
	}
	if err := q.First(&player).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		s.logger.WithError(err).Error("Failed to fuzzy-query player")
		return nil, err
	}
	return &player, nil
}

// TeamHistory returns up to n most recent completed games involving team.
func (s *Store) TeamHistory(ctx context.Context, team, sport string, n int) []models.HistoricalGame {
	if n <= 0 {
		n = 20
	}
	var games []models.HistoricalGame
	q := s.db.WithContext(ctx).
		Where("home_team = ? OR away_team = ?", team, team).
		Order("game_date DESC").
		Limit(n)
	if sport != "" {
		q = q.Where("sport = ?", sport)
	}
	if err := q.Find(&games).Error; err != nil {
		s.logger.WithError(err).WithField("team", team).Error("Failed to query team history")
		return nil
	}
	return games
}

// InsertPredictions writes prediction rows one at a time. A failed insert
// is counted and logged; it does not abort the remaining rows.
func (s *Store) InsertPredictions(ctx context.Context, rows []models.AIPrediction) (stored, failed int) {
	for i := range rows {
		if err := s.db.WithContext(ctx).Create(&rows[i]).Error; err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"match_teams": rows[i].MatchTeams,
				"pick":        rows[i].Pick,
			}).Error("Failed to insert prediction")
			failed++
			continue
		}
		stored++
	}
	return stored, failed
}

// RecentPredictions returns the latest stored picks, newest first. Used by
// the --summary CLI surface.
func (s *Store) RecentPredictions(ctx context.Context, limit int) []models.AIPrediction {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.AIPrediction
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		s.logger.WithError(err).Error("Failed to query recent predictions")
		return nil
	}
	return rows
}
