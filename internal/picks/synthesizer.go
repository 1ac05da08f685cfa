package picks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/llmjson"
)

// Completer is the single LLM operation the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer turns a research dossier plus a candidate pool into stored
// pick rows. The same pipeline serves the props and teams agents; the
// Strategy carries the differences.
type Synthesizer struct {
	llm         Completer
	logger      *logrus.Logger
	maxInsights int
}

func NewSynthesizer(llm Completer, logger *logrus.Logger, maxInsights int) *Synthesizer {
	if maxInsights <= 0 {
		maxInsights = 40
	}
	return &Synthesizer{llm: llm, logger: logger, maxInsights: maxInsights}
}

// Request carries one synthesis call's inputs. Split maps sport to the
// number of picks wanted for that sport; the total is the requested pick
// count.
type Request struct {
	Strategy Strategy
	Insights []models.ResearchInsight
	Split    map[string]int
}

func (r *Request) total() int {
	n := 0
	for _, c := range r.Split {
		n += c
	}
	return n
}

// Synthesize asks the model for picks grounded in the research dossier,
// reconciles each against a real line, and balances the survivors across
// sports. A model or parse failure yields an empty slice, never an error:
// a run that cannot synthesize simply stores nothing.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) []models.AIPrediction {
	if req.Strategy.CandidateCount() == 0 {
		s.logger.WithField("strategy", req.Strategy.Name()).Warn("No candidates survived odds filtering, skipping synthesis")
		return nil
	}

	prompt := s.buildPrompt(req)
	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).WithField("strategy", req.Strategy.Name()).Error("Pick synthesis call failed")
		return nil
	}

	var raws []RawPick
	if err := llmjson.ExtractArray(reply, &raws); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"strategy": req.Strategy.Name(),
			"reply":    truncate(reply, 300),
		}).Error("Could not parse synthesis response")
		return nil
	}

	var preds []models.AIPrediction
	for _, raw := range raws {
		pred, err := req.Strategy.Reconcile(raw)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"strategy": req.Strategy.Name(),
				"player":   raw.Player,
				"team":     raw.Team,
				"bet_type": raw.BetType,
			}).Warn("Discarding unreconcilable pick")
			continue
		}
		preds = append(preds, *pred)
	}

	selected := SelectBalanced(preds, req.Split)
	s.logger.WithFields(logrus.Fields{
		"strategy":  req.Strategy.Name(),
		"proposed":  len(raws),
		"reconciled": len(preds),
		"selected":  len(selected),
	}).Info("Synthesis complete")
	return selected
}

func (s *Synthesizer) buildPrompt(req Request) string {
	insights := req.Insights
	if len(insights) > s.maxInsights {
		insights = insights[len(insights)-s.maxInsights:]
	}

	var dossier strings.Builder
	for _, ins := range insights {
		dossier.WriteString(fmt.Sprintf("[%s, confidence %.2f] %s: %s\n",
			ins.Source, ins.Confidence, ins.Query, ins.Preview(400)))
	}

	var splitDesc strings.Builder
	for sport, count := range req.Split {
		splitDesc.WriteString(fmt.Sprintf("- %s: %d picks\n", sport, count))
	}

	var kind string
	switch req.Strategy.Name() {
	case "teams":
		kind = "team-level picks (moneyline, spread, or total)"
	default:
		kind = "player prop picks"
	}

	return fmt.Sprintf(`You are a professional sports betting analyst. Using ONLY the research and candidate lines below, produce exactly %d %s.

Requested distribution:
%s
RESEARCH DOSSIER:
%s
AVAILABLE LINES (you must pick from these, copying names and lines exactly):
%s
Respond with ONLY a JSON array, no prose, one object per pick:
[{"player": "...", "team": "...", "match_teams": "Away @ Home", "sport": "...", "bet_type": "player_prop|moneyline|spread|total", "prop_type": "...", "recommendation": "over|under|<side>", "line": 0.0, "odds": "-110", "confidence": 0.75, "reasoning": "...", "roi_estimate": "5%%", "value_percentage": "8%%", "key_factors": ["..."]}]

Rules:
- Every pick must reference a line from AVAILABLE LINES; never invent players, games, or odds.
- Confidence is your honest probability estimate between 0 and 1.
- Reasoning must cite the research dossier.`,
		req.total(), kind, splitDesc.String(), dossier.String(), req.Strategy.CandidateBlock())
}

// SelectBalanced takes the top picks per sport by confidence according to
// the requested split. Sports absent from the split contribute nothing;
// shortfalls in one sport are not backfilled from another.
func SelectBalanced(preds []models.AIPrediction, split map[string]int) []models.AIPrediction {
	if len(split) == 0 {
		return preds
	}
	bySport := make(map[string][]models.AIPrediction)
	for _, p := range preds {
		bySport[p.Sport] = append(bySport[p.Sport], p)
	}

	sports := make([]string, 0, len(split))
	for sport := range split {
		sports = append(sports, sport)
	}
	sort.Strings(sports)

	var out []models.AIPrediction
	for _, sport := range sports {
		want := split[sport]
		pool := bySport[sport]
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Confidence > pool[j].Confidence
		})
		if len(pool) > want {
			pool = pool[:want]
		}
		out = append(out, pool...)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
