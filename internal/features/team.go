package features

import (
	"strings"

	"github.com/parlayiq/picks-engine/internal/models"
)

// TeamVectorSize is the fixed width of a team feature vector. Layout:
//
//	[0:12)  overall scored/allowed/win-rate/margin over 5/10/20 games
//	[12:20) home-game scored/allowed/win-rate/margin over 5/10
//	[20:28) away-game scored/allowed/win-rate/margin over 5/10
//	[28:32) home-minus-away differentials over the 10-game window
const TeamVectorSize = 32

type teamGame struct {
	scored  float64
	allowed float64
	won     bool
	home    bool
}

// TeamVector builds the feature vector for one team from its historical
// games, newest first. An empty history yields the zero vector, letting
// the model fall back to its intercept.
func TeamVector(history []models.HistoricalGame, team string) []float64 {
	vec := make([]float64, TeamVectorSize)
	games := normalizeGames(history, team)
	if len(games) == 0 {
		return vec
	}

	var home, away []teamGame
	for _, g := range games {
		if g.home {
			home = append(home, g)
		} else {
			away = append(away, g)
		}
	}

	idx := 0
	for _, window := range []int{5, 10, 20} {
		s, a, w, m := windowStats(games, window)
		vec[idx], vec[idx+1], vec[idx+2], vec[idx+3] = s, a, w, m
		idx += 4
	}
	for _, window := range []int{5, 10} {
		s, a, w, m := windowStats(home, window)
		vec[idx], vec[idx+1], vec[idx+2], vec[idx+3] = s, a, w, m
		idx += 4
	}
	for _, window := range []int{5, 10} {
		s, a, w, m := windowStats(away, window)
		vec[idx], vec[idx+1], vec[idx+2], vec[idx+3] = s, a, w, m
		idx += 4
	}

	hs, ha, hw, hm := windowStats(home, 10)
	as, aa, aw, am := windowStats(away, 10)
	vec[28] = hs - as
	vec[29] = ha - aa
	vec[30] = hw - aw
	vec[31] = hm - am
	return vec
}

// normalizeGames reorients each historical row to the given team's
// perspective. Rows where the team appears on neither side are dropped.
func normalizeGames(history []models.HistoricalGame, team string) []teamGame {
	lower := strings.ToLower(team)
	var games []teamGame
	for _, g := range history {
		switch {
		case strings.EqualFold(g.HomeTeam, team) || strings.Contains(strings.ToLower(g.HomeTeam), lower):
			games = append(games, teamGame{
				scored:  float64(g.HomeScore),
				allowed: float64(g.AwayScore),
				won:     g.HomeScore > g.AwayScore,
				home:    true,
			})
		case strings.EqualFold(g.AwayTeam, team) || strings.Contains(strings.ToLower(g.AwayTeam), lower):
			games = append(games, teamGame{
				scored:  float64(g.AwayScore),
				allowed: float64(g.HomeScore),
				won:     g.AwayScore > g.HomeScore,
				home:    false,
			})
		}
	}
	return games
}

func windowStats(games []teamGame, window int) (scored, allowed, winRate, margin float64) {
	if len(games) == 0 {
		return 0, 0, 0, 0
	}
	if window > len(games) {
		window = len(games)
	}
	wins := 0
	for _, g := range games[:window] {
		scored += g.scored
		allowed += g.allowed
		if g.won {
			wins++
		}
	}
	n := float64(window)
	scored /= n
	allowed /= n
	winRate = float64(wins) / n
	margin = scored - allowed
	return scored, allowed, winRate, margin
}
