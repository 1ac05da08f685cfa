package mlmodels

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

// Model is one trained coefficient set, loaded from a
// {sport}_{stat}.json artifact.
type Model struct {
	Sport     string    `json:"sport"`
	Stat      string    `json:"stat"`
	Kind      string    `json:"kind"` // "linear" or "logistic"
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	// Optional feature scaler; empty slices mean raw features.
	ScalerMean []float64 `json:"scaler_mean,omitempty"`
	ScalerStd  []float64 `json:"scaler_std,omitempty"`
}

// Predict computes the model output for a feature vector. Logistic
// models return a probability in (0, 1); linear models return the
// predicted stat value.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("model %s:%s expects %d features, got %d", m.Sport, m.Stat, len(m.Weights), len(features))
	}
	x := features
	if len(m.ScalerMean) == len(features) && len(m.ScalerStd) == len(features) {
		x = make([]float64, len(features))
		for i, v := range features {
			std := m.ScalerStd[i]
			if std == 0 {
				std = 1
			}
			x[i] = (v - m.ScalerMean[i]) / std
		}
	}
	z := m.Intercept
	for i, w := range m.Weights {
		z += w * x[i]
	}
	if m.Kind == KindLogistic {
		return 1.0 / (1.0 + math.Exp(-z)), nil
	}
	return z, nil
}

// propTypeAliases maps market display names to the stat keys models are
// trained under.
var propTypeAliases = map[string]string{
	"batter_hits":        "hits",
	"hits":               "hits",
	"total_bases":        "hits",
	"batter_home_runs":   "home_runs",
	"home_runs":          "home_runs",
	"batter_strikeouts":  "strikeouts",
	"pitcher_strikeouts": "strikeouts",
	"strikeouts":         "strikeouts",
	"batter_rbis":        "rbis",
	"rbis":               "rbis",
	"points":             "points",
	"player_points":      "points",
	"rebounds":           "rebounds",
	"player_rebounds":    "rebounds",
	"assists":            "assists",
	"player_assists":     "assists",
	"spread":             "spread",
	"total":              "total",
	"moneyline":          "moneyline",
}

// Registry holds every loaded model keyed "sport:stat".
type Registry struct {
	models map[string]*Model
	logger *logrus.Logger
}

// LoadRegistry reads every *.json artifact under dir at startup. A
// malformed artifact is logged and skipped; an empty directory is a
// valid (if useless) registry.
func LoadRegistry(dir string, logger *logrus.Logger) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading models dir %s: %w", dir, err)
	}

	reg := &Registry{models: make(map[string]*Model), logger: logger}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping unreadable model artifact")
			continue
		}
		var m Model
		if err := json.Unmarshal(data, &m); err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping malformed model artifact")
			continue
		}
		if m.Sport == "" || m.Stat == "" {
			// Fall back to the filename convention {sport}_{stat}.json.
			base := strings.TrimSuffix(entry.Name(), ".json")
			if i := strings.Index(base, "_"); i > 0 {
				m.Sport, m.Stat = base[:i], base[i+1:]
			}
		}
		if m.Kind == "" {
			m.Kind = KindLinear
		}
		if len(m.Weights) == 0 {
			logger.WithField("file", entry.Name()).Warn("Skipping model artifact with no weights")
			continue
		}
		key := registryKey(m.Sport, m.Stat)
		reg.models[key] = &m
		logger.WithFields(logrus.Fields{
			"key":      key,
			"kind":     m.Kind,
			"features": len(m.Weights),
		}).Info("Loaded model artifact")
	}
	return reg, nil
}

func registryKey(sport, stat string) string {
	return strings.ToLower(sport) + ":" + strings.ToLower(stat)
}

// Lookup resolves a sport and prop/market type to a loaded model,
// applying the alias map first.
func (r *Registry) Lookup(sport, propType string) (*Model, bool) {
	stat := strings.ToLower(strings.TrimSpace(propType))
	if alias, ok := propTypeAliases[stat]; ok {
		stat = alias
	}
	m, ok := r.models[registryKey(sport, stat)]
	return m, ok
}

// Keys lists every loaded model key, sorted, for status and error
// responses.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.models))
	for k := range r.models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Len() int {
	return len(r.models)
}
