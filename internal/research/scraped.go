package research

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/models"
)

// Franchise names recognized by the best-effort team tagger. Substring
// matched against file contents, lowercased.
var knownFranchises = []string{
	// MLB
	"Yankees", "Red Sox", "Dodgers", "Giants", "Cubs", "Mets", "Braves",
	"Astros", "Phillies", "Padres", "Orioles", "Rangers", "Blue Jays",
	"Mariners", "Rays", "Twins", "Guardians", "Brewers", "Diamondbacks",
	"Cardinals", "Royals", "Tigers", "Pirates", "Reds", "Marlins",
	"Nationals", "White Sox", "Angels", "Athletics", "Rockies",
	// WNBA
	"Aces", "Liberty", "Sky", "Fever", "Storm", "Lynx", "Mercury",
	"Sun", "Wings", "Mystics", "Sparks", "Dream",
}

// ScrapedStore loads crawler-produced JSON files from disk. Each file is a
// ScrapedDataset envelope; anything older than the freshness window or
// undecodable is skipped.
type ScrapedStore struct {
	dir    string
	logger *logrus.Logger
}

func NewScrapedStore(dir string, logger *logrus.Logger) *ScrapedStore {
	return &ScrapedStore{dir: dir, logger: logger}
}

// Load returns all fresh datasets, tagged with best-effort team names.
func (s *ScrapedStore) Load(maxAge time.Duration) []models.ScrapedDataset {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.WithError(err).WithField("dir", s.dir).Debug("No scraped data directory")
		return nil
	}

	cutoff := time.Now().Add(-maxAge)
	var datasets []models.ScrapedDataset

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Warn("Failed to read scraped file")
			continue
		}

		var dataset models.ScrapedDataset
		if err := json.Unmarshal(raw, &dataset); err != nil {
			s.logger.WithError(err).WithField("file", path).Warn("Skipping undecodable scraped file")
			continue
		}
		if dataset.Kind == "" {
			dataset.Kind = kindFromFilename(entry.Name())
		}
		if dataset.FetchedAt.IsZero() {
			dataset.FetchedAt = info.ModTime()
		}
		if len(dataset.Teams) == 0 {
			dataset.Teams = extractTeams(string(raw))
		}
		datasets = append(datasets, dataset)
	}

	s.logger.WithField("datasets", len(datasets)).Debug("Loaded scraped datasets")
	return datasets
}

func kindFromFilename(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "player"):
		return models.ScrapedPlayerStats
	case strings.Contains(lower, "team"):
		return models.ScrapedTeamPerformance
	default:
		return models.ScrapedNews
	}
}

func extractTeams(content string) []string {
	lower := strings.ToLower(content)
	var teams []string
	for _, franchise := range knownFranchises {
		if strings.Contains(lower, strings.ToLower(franchise)) {
			teams = append(teams, franchise)
		}
	}
	return teams
}
