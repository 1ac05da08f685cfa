package models

import "time"

// Insight sources.
const (
	SourceStatMuse         = "statmuse"
	SourceWebSearch        = "web_search"
	SourceStatMuseAdaptive = "statmuse_adaptive"
	SourceWebAdaptive      = "web_search_adaptive"
	SourceScrapedNews      = "scrapy_news"
)

// ResearchInsight is one unit of gathered evidence. Insights are ephemeral:
// accumulated in memory across the research stages and consumed once by the
// synthesis prompt.
type ResearchInsight struct {
	Source     string    `json:"source"`
	Query      string    `json:"query"`
	Data       string    `json:"data"`
	Confidence float64   `json:"confidence"` // 0-1
	Timestamp  time.Time `json:"timestamp"`
}

// Preview returns a truncated view of the insight payload for use in
// follow-up prompts.
func (i ResearchInsight) Preview(maxLen int) string {
	if len(i.Data) <= maxLen {
		return i.Data
	}
	return i.Data[:maxLen] + "..."
}

// QueryPriority levels a research plan can assign.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PlannedQuery is one query from an LLM-generated research plan.
type PlannedQuery struct {
	Query    string `json:"query"`
	Priority string `json:"priority"`
	Reason   string `json:"reason,omitempty"`
}

// ResearchPlan is the LLM's proposed set of initial research queries.
type ResearchPlan struct {
	StatsQueries []PlannedQuery `json:"stats_queries"`
	WebQueries   []PlannedQuery `json:"web_queries"`
}
