package features

import (
	"math"
	"sort"
	"strings"

	"github.com/parlayiq/picks-engine/internal/models"
)

// PlayerVectorSize is the fixed width of a player feature vector:
// rolling means over the last 5/10/20 games, trend delta, rolling
// stddev, and a days-of-rest slot.
const PlayerVectorSize = 6

// statFamilyOrder fixes the order families are checked in so a prop
// type always resolves to the same family.
var statFamilyOrder = []string{"home_runs", "strikeouts", "rbis", "hits"}

// statFamilies groups prop market names into the families the prop
// models are trained on. Lookups are case-insensitive substring matches
// so "Home Runs" and "home_runs" land in the same family. Fragments
// must be long enough not to hide inside unrelated market names.
var statFamilies = map[string][]string{
	"hits":       {"hit", "single", "double", "total_bases", "total bases"},
	"home_runs":  {"home_run", "home run", "homer"},
	"strikeouts": {"strikeout", "strike out"},
	"rbis":       {"rbi", "run_batted", "runs batted"},
}

// familyStatKeys lists the game-log columns each family reads, in
// priority order. Keys are matched exactly after normalization, never
// by substring, so a log carrying both strikeouts and walks always
// reads the strikeout column.
var familyStatKeys = map[string][]string{
	"hits":       {"hits", "hit", "total_bases", "totalbases"},
	"home_runs":  {"home_runs", "home_run", "homeruns", "homers", "hr"},
	"strikeouts": {"strikeouts", "strikeout", "pitcher_strikeouts", "so", "k"},
	"rbis":       {"rbis", "rbi", "runs_batted_in"},
}

// leagueAverages are the fallback vectors used when a player has no
// recorded history. Values are league-wide per-game baselines.
var leagueAverages = map[string][]float64{
	"hits":       {1.0, 1.0, 1.0, 0.0, 0.6, 1.0},
	"home_runs":  {0.15, 0.15, 0.15, 0.0, 0.35, 1.0},
	"strikeouts": {1.1, 1.1, 1.1, 0.0, 0.8, 1.0},
	"rbis":       {0.6, 0.6, 0.6, 0.0, 0.7, 1.0},
}

var defaultAverage = []float64{0.8, 0.8, 0.8, 0.0, 0.5, 1.0}

// StatFamily maps a prop market type or raw stat key to its model
// family, defaulting to "hits" for unrecognized markets.
func StatFamily(propType string) string {
	lower := strings.ToLower(propType)
	for _, family := range statFamilyOrder {
		for _, frag := range statFamilies[family] {
			if strings.Contains(lower, frag) {
				return family
			}
		}
	}
	return "hits"
}

// PlayerVector builds the feature vector for one player and stat family
// from their recent game log, newest first. With no usable history the
// league-average vector is returned so serving never errors on a cold
// player.
func PlayerVector(history []models.PlayerGameStat, family string) []float64 {
	values := extractFamilyValues(history, family)
	if len(values) == 0 {
		if avg, ok := leagueAverages[family]; ok {
			out := make([]float64, PlayerVectorSize)
			copy(out, avg)
			return out
		}
		out := make([]float64, PlayerVectorSize)
		copy(out, defaultAverage)
		return out
	}

	vec := make([]float64, PlayerVectorSize)
	vec[0] = rollingMean(values, 5)
	vec[1] = rollingMean(values, 10)
	vec[2] = rollingMean(values, 20)
	vec[3] = trendDelta(values, 10)
	vec[4] = rollingStddev(values, 10)
	vec[5] = 1.0 // days-of-rest placeholder until schedule data lands
	return vec
}

// extractFamilyValues pulls the family's stat value out of each game's
// stats blob, newest first. Games missing the stat are skipped rather
// than counted as zero.
func extractFamilyValues(history []models.PlayerGameStat, family string) []float64 {
	keys := familyStatKeys[family]
	var values []float64
	for i := range history {
		stats := normalizeStatKeys(history[i].StatMap())
		for _, key := range keys {
			if v, ok := stats[key]; ok {
				values = append(values, v)
				break
			}
		}
	}
	return values
}

// normalizeStatKeys lowercases stat keys and collapses spaces and
// hyphens to underscores. Keys are visited in sorted order so a
// collision between raw spellings resolves the same way every call.
func normalizeStatKeys(stats map[string]float64) map[string]float64 {
	raw := make([]string, 0, len(stats))
	for k := range stats {
		raw = append(raw, k)
	}
	sort.Strings(raw)
	out := make(map[string]float64, len(stats))
	for _, k := range raw {
		norm := strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(k))
		if _, taken := out[norm]; !taken {
			out[norm] = stats[k]
		}
	}
	return out
}

func rollingMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	sum := 0.0
	for _, v := range values[:window] {
		sum += v
	}
	return sum / float64(window)
}

// trendDelta is newest-window mean minus oldest-window mean over the
// last `window` games; positive means the player is heating up.
func trendDelta(values []float64, window int) float64 {
	if len(values) < 4 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	half := window / 2
	recent := rollingMean(values, half)
	older := 0.0
	for _, v := range values[half:window] {
		older += v
	}
	older /= float64(window - half)
	return recent - older
}

func rollingStddev(values []float64, window int) float64 {
	if len(values) < 2 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	mean := rollingMean(values, window)
	sumSq := 0.0
	for _, v := range values[:window] {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(window-1))
}
