// Package research gathers evidence for pick synthesis from three sources:
// the stats-lookup service, web search, and crawler output on disk. The
// orchestrator runs a fixed three-stage sequence and accumulates
// source-tagged, confidence-scored insights.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/llmjson"
)

// Completer is the LLM surface the orchestrator needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatsQuerier answers natural-language stat questions.
type StatsQuerier interface {
	Query(ctx context.Context, question string) *StatMuseResult
}

// WebSearcher answers free-text search queries.
type WebSearcher interface {
	Search(ctx context.Context, query string) *SearchResult
}

// Limits bounds each stage's query volume.
type Limits struct {
	StatsQueries    int           // stage 1 stats cap
	WebQueries      int           // stage 1 web cap
	AdaptiveQueries int           // stage 2 cap
	MinInsights     int           // stage 3 trigger threshold
	ScrapedMaxAge   time.Duration // freshness cutoff for crawler datasets
}

func DefaultLimits() Limits {
	return Limits{
		StatsQueries:    8,
		WebQueries:      3,
		AdaptiveQueries: 6,
		MinInsights:     8,
		ScrapedMaxAge:   24 * time.Hour,
	}
}

// Context describes the slate being researched.
type Context struct {
	Sport      string
	Games      []models.SportsEvent
	TopPlayers []string // candidate prop players, best first
	TopTeams   []string
	Candidates string // preformatted candidate bet/prop list for prompts
}

// Stage-1 priority to confidence mapping; stage 2 runs slightly higher
// because its queries are informed by prior findings.
var (
	initialConfidence  = map[string]float64{models.PriorityHigh: 0.9, models.PriorityMedium: 0.7, models.PriorityLow: 0.5}
	adaptiveConfidence = map[string]float64{models.PriorityHigh: 0.95, models.PriorityMedium: 0.8, models.PriorityLow: 0.6}
)

type Orchestrator struct {
	llm      Completer
	stats    StatsQuerier
	web      WebSearcher
	scraped  *ScrapedStore
	limits   Limits
	logger   *logrus.Logger
}

func NewOrchestrator(llm Completer, stats StatsQuerier, web WebSearcher, scraped *ScrapedStore, limits Limits, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		llm:     llm,
		stats:   stats,
		web:     web,
		scraped: scraped,
		limits:  limits,
		logger:  logger,
	}
}

// Run executes the three research stages in order and returns everything
// gathered. Individual query failures are logged and omitted; Run itself
// never fails.
func (o *Orchestrator) Run(ctx context.Context, rc Context) []models.ResearchInsight {
	var insights []models.ResearchInsight

	if o.scraped != nil {
		insights = append(insights, o.scrapedInsights(rc.Sport)...)
	}

	plan := o.buildPlan(ctx, rc)
	insights = append(insights, o.executePlan(ctx, plan)...)

	insights = append(insights, o.adaptiveStage(ctx, rc, insights)...)

	if len(insights) < o.limits.MinInsights {
		insights = append(insights, o.topUpStage(ctx, rc)...)
	}

	o.logger.WithFields(logrus.Fields{
		"sport":    rc.Sport,
		"insights": len(insights),
	}).Info("Research complete")
	return insights
}

// Stage 1: plan generation plus execution.

func (o *Orchestrator) buildPlan(ctx context.Context, rc Context) models.ResearchPlan {
	prompt := o.planPrompt(rc)
	reply, err := o.llm.Complete(ctx, prompt)
	if err != nil {
		o.logger.WithError(err).Warn("Plan generation failed, using fallback plan")
		return fallbackPlan(rc)
	}

	var plan models.ResearchPlan
	if err := llmjson.ExtractObject(reply, &plan); err != nil {
		o.logger.WithError(err).Warn("Plan reply did not parse, using fallback plan")
		return fallbackPlan(rc)
	}
	if len(plan.StatsQueries) == 0 && len(plan.WebQueries) == 0 {
		return fallbackPlan(rc)
	}
	return plan
}

func (o *Orchestrator) planPrompt(rc Context) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are planning research for today's %s betting slate.\n\n", rc.Sport))
	b.WriteString("GAMES:\n")
	for _, g := range rc.Games {
		b.WriteString(fmt.Sprintf("- %s @ %s (%s)\n", g.AwayTeam, g.HomeTeam, g.StartTime.Format(time.RFC1123)))
	}
	if rc.Candidates != "" {
		b.WriteString("\nCANDIDATE BETS:\n")
		b.WriteString(rc.Candidates)
		b.WriteString("\n")
	}
	b.WriteString(`
Propose the most valuable research queries. Stats queries go to a natural
language sports stats engine; web queries go to a news/web search.

Respond with ONLY a JSON object:
{
  "stats_queries": [{"query": "...", "priority": "high|medium|low"}],
  "web_queries": [{"query": "...", "priority": "high|medium|low"}]
}`)
	return b.String()
}

func fallbackPlan(rc Context) models.ResearchPlan {
	var plan models.ResearchPlan
	for i, player := range rc.TopPlayers {
		if i >= 4 {
			break
		}
		plan.StatsQueries = append(plan.StatsQueries, models.PlannedQuery{
			Query:    fmt.Sprintf("%s stats in last 10 games", player),
			Priority: models.PriorityHigh,
		})
	}
	for i, team := range rc.TopTeams {
		if i >= 4 {
			break
		}
		plan.StatsQueries = append(plan.StatsQueries, models.PlannedQuery{
			Query:    fmt.Sprintf("%s record in last 10 games", team),
			Priority: models.PriorityMedium,
		})
		if i < 2 {
			plan.WebQueries = append(plan.WebQueries, models.PlannedQuery{
				Query:    fmt.Sprintf("%s injury report news", team),
				Priority: models.PriorityHigh,
			})
		}
	}
	return plan
}

func (o *Orchestrator) executePlan(ctx context.Context, plan models.ResearchPlan) []models.ResearchInsight {
	var insights []models.ResearchInsight

	for i, q := range plan.StatsQueries {
		if i >= o.limits.StatsQueries {
			break
		}
		if insight, ok := o.runStatsQuery(ctx, q.Query, models.SourceStatMuse, confidenceFor(initialConfidence, q.Priority)); ok {
			insights = append(insights, insight)
		}
	}

	for i, q := range plan.WebQueries {
		if i >= o.limits.WebQueries {
			break
		}
		if insight, ok := o.runWebQuery(ctx, q.Query, models.SourceWebSearch, confidenceFor(initialConfidence, q.Priority)); ok {
			insights = append(insights, insight)
		}
	}

	return insights
}

// Stage 2: LLM-driven gap analysis.

type adaptiveQuery struct {
	Query    string `json:"query"`
	Source   string `json:"source"` // "statmuse" or "web_search"
	Priority string `json:"priority"`
	Reason   string `json:"reason,omitempty"`
}

func (o *Orchestrator) adaptiveStage(ctx context.Context, rc Context, prior []models.ResearchInsight) []models.ResearchInsight {
	prompt := o.adaptivePrompt(rc, prior)
	reply, err := o.llm.Complete(ctx, prompt)
	if err != nil {
		o.logger.WithError(err).Warn("Adaptive research stage skipped: gap analysis failed")
		return nil
	}

	var queries []adaptiveQuery
	if err := llmjson.ExtractArray(reply, &queries); err != nil {
		o.logger.WithError(err).Warn("Adaptive research stage skipped: gap analysis reply did not parse")
		return nil
	}

	var insights []models.ResearchInsight
	for i, q := range queries {
		if i >= o.limits.AdaptiveQueries {
			break
		}
		conf := confidenceFor(adaptiveConfidence, q.Priority)
		if q.Source == "web_search" {
			if insight, ok := o.runWebQuery(ctx, q.Query, models.SourceWebAdaptive, conf); ok {
				insights = append(insights, insight)
			}
			continue
		}
		if insight, ok := o.runStatsQuery(ctx, q.Query, models.SourceStatMuseAdaptive, conf); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

func (o *Orchestrator) adaptivePrompt(rc Context, prior []models.ResearchInsight) string {
	var b strings.Builder
	b.WriteString("You already gathered this research:\n\n")
	for _, insight := range prior {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", insight.Source, insight.Query, insight.Preview(200)))
	}
	if rc.Candidates != "" {
		b.WriteString("\nCANDIDATE BETS:\n")
		b.WriteString(rc.Candidates)
		b.WriteString("\n")
	}
	b.WriteString(`
Identify the biggest gaps in this research relative to the candidate
bets and propose 3 to 6 follow-up queries that would close them.

Respond with ONLY a JSON array:
[{"query": "...", "source": "statmuse|web_search", "priority": "high|medium|low", "reason": "..."}]`)
	return b.String()
}

// Stage 3: generic top-up when research volume is thin.

func (o *Orchestrator) topUpStage(ctx context.Context, rc Context) []models.ResearchInsight {
	var queries []string
	for i, team := range rc.TopTeams {
		if i >= 2 {
			break
		}
		queries = append(queries, fmt.Sprintf("How has %s performed in their last 10 games", team))
	}
	if len(rc.TopPlayers) > 0 {
		queries = append(queries, fmt.Sprintf("%s recent performance", rc.TopPlayers[0]))
	}

	var insights []models.ResearchInsight
	for _, q := range queries {
		if insight, ok := o.runStatsQuery(ctx, q, models.SourceStatMuse, 0.5); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

// Shared query execution.

func (o *Orchestrator) runStatsQuery(ctx context.Context, query, source string, confidence float64) (models.ResearchInsight, bool) {
	result := o.stats.Query(ctx, query)
	if result.Err != "" || result.Answer == "" {
		o.logger.WithFields(logrus.Fields{"query": query, "error": result.Err}).Debug("Stats query produced no insight")
		return models.ResearchInsight{}, false
	}
	return models.ResearchInsight{
		Source:     source,
		Query:      query,
		Data:       result.Answer,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	}, true
}

func (o *Orchestrator) runWebQuery(ctx context.Context, query, source string, confidence float64) (models.ResearchInsight, bool) {
	result := o.web.Search(ctx, query)
	if result.Fallback || result.Summary == "" {
		o.logger.WithField("query", query).Debug("Web query produced no insight")
		return models.ResearchInsight{}, false
	}
	return models.ResearchInsight{
		Source:     source,
		Query:      query,
		Data:       result.Summary,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	}, true
}

func (o *Orchestrator) scrapedInsights(sport string) []models.ResearchInsight {
	maxAge := o.limits.ScrapedMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	datasets := o.scraped.Load(maxAge)
	var insights []models.ResearchInsight
	for _, ds := range datasets {
		if sport != "" && ds.Sport != "" && !strings.EqualFold(ds.Sport, sport) {
			continue
		}
		payload, err := json.Marshal(ds)
		if err != nil {
			continue
		}
		insights = append(insights, models.ResearchInsight{
			Source:     models.SourceScrapedNews,
			Query:      fmt.Sprintf("scraped %s (%s)", ds.Kind, strings.Join(ds.Teams, ", ")),
			Data:       string(payload),
			Confidence: 0.6,
			Timestamp:  ds.FetchedAt,
		})
	}
	return insights
}

func confidenceFor(table map[string]float64, priority string) float64 {
	if c, ok := table[strings.ToLower(priority)]; ok {
		return c
	}
	return table[models.PriorityMedium]
}
