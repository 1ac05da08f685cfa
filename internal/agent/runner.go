package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/cache"
	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/internal/picks"
	"github.com/parlayiq/picks-engine/internal/research"
	"github.com/parlayiq/picks-engine/internal/store"
	"github.com/parlayiq/picks-engine/pkg/config"
)

// Sports covered by the daily slate, in research order.
var defaultSports = []string{"MLB", "WNBA"}

const eventLimit = 50

// Completer is the LLM surface the runner passes down to research and
// synthesis.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Runner drives one full picks run: load the slate, research it,
// synthesize picks, validate and store them.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	llm      Completer
	orch     *research.Orchestrator
	cache    *cache.Service
	logger   *logrus.Logger
	location *time.Location
}

func NewRunner(cfg *config.Config, st *store.Store, llm Completer, orch *research.Orchestrator, cacheSvc *cache.Service, logger *logrus.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    st,
		llm:      llm,
		orch:     orch,
		cache:    cacheSvc,
		logger:   logger,
		location: time.Local,
	}
}

// ResolveDay picks the slate date from the CLI flags: --date wins, then
// --tomorrow, then today. An explicit date is clamped to ±3 days.
func (r *Runner) ResolveDay(dateFlag string, tomorrow bool) (time.Time, error) {
	now := time.Now().In(r.location)
	if dateFlag != "" {
		target, err := time.ParseInLocation("2006-01-02", dateFlag, r.location)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
		}
		return store.ClampTargetDate(target, now, false), nil
	}
	if tomorrow {
		return now.AddDate(0, 0, 1), nil
	}
	return now, nil
}

// RunProps executes the player-props pipeline for one day.
func (r *Runner) RunProps(ctx context.Context, day time.Time, count int, testMode bool) (*models.StoreResult, error) {
	runID := uuid.New().String()
	log := r.logger.WithFields(logrus.Fields{"run_id": runID, "agent": "props"})
	log.WithField("date", day.Format("2006-01-02")).Info("Starting props run")

	var (
		allEvents   []models.SportsEvent
		allProps    []models.PlayerProp
		allInsights []models.ResearchInsight
		poolBySport = map[string]int{}
	)

	for _, sport := range defaultSports {
		events := r.store.UpcomingEvents(ctx, day, r.location, sport, eventLimit, true)
		if len(events) == 0 {
			log.WithField("sport", sport).Info("No events on slate")
			continue
		}
		ids := eventIDs(events)
		props := r.store.PropsForEvents(ctx, ids)
		if len(props) == 0 {
			log.WithField("sport", sport).Info("No priced props on slate")
			continue
		}

		rc := research.Context{
			Sport:      sport,
			Games:      events,
			TopPlayers: topPlayers(props, 8),
			TopTeams:   topTeams(events, 8),
			Candidates: propPreview(props, 25),
		}
		allInsights = append(allInsights, r.orch.Run(ctx, rc)...)
		allEvents = append(allEvents, events...)
		allProps = append(allProps, props...)
		poolBySport[sport] = len(props)
	}

	if len(allProps) == 0 {
		log.Warn("Nothing to pick: no usable props for the slate")
		return &models.StoreResult{}, nil
	}

	strategy := picks.NewPropsStrategy(allProps, allEvents, r.cfg.MaxOdds, runID, r.llm.Model())
	return r.synthesizeAndPublish(ctx, log, strategy, allInsights, computeSplit(count, poolBySport), testMode)
}

// RunTeams executes the team-bets pipeline for one day.
func (r *Runner) RunTeams(ctx context.Context, day time.Time, count int, testMode bool) (*models.StoreResult, error) {
	runID := uuid.New().String()
	log := r.logger.WithFields(logrus.Fields{"run_id": runID, "agent": "teams"})
	log.WithField("date", day.Format("2006-01-02")).Info("Starting teams run")

	var (
		allEvents   []models.SportsEvent
		allLines    []models.EventOdds
		allInsights []models.ResearchInsight
		poolBySport = map[string]int{}
	)

	for _, sport := range defaultSports {
		events := r.store.UpcomingEvents(ctx, day, r.location, sport, eventLimit, true)
		if len(events) == 0 {
			continue
		}
		lines := r.store.OddsForEvents(events)
		if len(lines) == 0 {
			log.WithField("sport", sport).Info("No bookmaker lines on slate")
			continue
		}

		rc := research.Context{
			Sport:      sport,
			Games:      events,
			TopTeams:   topTeams(events, 8),
			Candidates: linePreview(lines, 25),
		}
		allInsights = append(allInsights, r.orch.Run(ctx, rc)...)
		allEvents = append(allEvents, events...)
		allLines = append(allLines, lines...)
		poolBySport[sport] = len(lines)
	}

	if len(allLines) == 0 {
		log.Warn("Nothing to pick: no bookmaker lines for the slate")
		return &models.StoreResult{}, nil
	}

	strategy := picks.NewTeamsStrategy(allLines, allEvents, r.cfg.MaxOdds, runID, r.llm.Model())
	return r.synthesizeAndPublish(ctx, log, strategy, allInsights, computeSplit(count, poolBySport), testMode)
}

func (r *Runner) synthesizeAndPublish(ctx context.Context, log *logrus.Entry, strategy picks.Strategy, insights []models.ResearchInsight, split map[string]int, testMode bool) (*models.StoreResult, error) {
	synth := picks.NewSynthesizer(r.llm, r.logger, r.cfg.MaxInsights)
	preds := synth.Synthesize(ctx, picks.Request{
		Strategy: strategy,
		Insights: insights,
		Split:    split,
	})

	publisher := picks.NewPublisher(r.store, r.logger, testMode)
	result, err := publisher.Publish(ctx, preds)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && !testMode {
		if err := r.cache.SetLastRefresh(ctx, strategy.Name(), time.Now().UTC()); err != nil {
			log.WithError(err).Debug("Could not record last refresh")
		}
	}
	log.WithFields(logrus.Fields{
		"submitted": result.Submitted,
		"stored":    result.Stored,
		"errors":    result.Errors,
	}).Info("Run finished")
	return result, nil
}

// RunBoth executes the props and teams pipelines concurrently. Each
// pipeline owns its data end to end; only the results are joined.
func (r *Runner) RunBoth(ctx context.Context, day time.Time, propsCount, teamsCount int, testMode bool) (props, teams *models.StoreResult, propsErr, teamsErr error) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		props, propsErr = r.RunProps(ctx, day, propsCount, testMode)
	}()
	go func() {
		defer wg.Done()
		teams, teamsErr = r.RunTeams(ctx, day, teamsCount, testMode)
	}()
	wg.Wait()
	return props, teams, propsErr, teamsErr
}

// Summary prints the most recently stored picks.
func (r *Runner) Summary(ctx context.Context, limit int) []models.AIPrediction {
	preds := r.store.RecentPredictions(ctx, limit)
	for _, p := range preds {
		fmt.Printf("[%s] %s | %s | %s @ %s | confidence %d%%\n",
			p.Sport, p.MatchTeams, p.Pick, p.Odds, p.EventTime.Format("Jan 2 15:04 MST"), p.Confidence)
	}
	fmt.Printf("%d picks\n", len(preds))
	return preds
}

// computeSplit divides the requested pick count across sports in
// proportion to their candidate pools. Every sport with candidates gets
// at least one; leftovers go to the deepest pools first.
func computeSplit(count int, poolBySport map[string]int) map[string]int {
	split := map[string]int{}
	total := 0
	for _, n := range poolBySport {
		total += n
	}
	if total == 0 || count <= 0 {
		return split
	}

	sports := make([]string, 0, len(poolBySport))
	for sport := range poolBySport {
		sports = append(sports, sport)
	}
	sort.Slice(sports, func(i, j int) bool {
		if poolBySport[sports[i]] != poolBySport[sports[j]] {
			return poolBySport[sports[i]] > poolBySport[sports[j]]
		}
		return sports[i] < sports[j]
	})

	assigned := 0
	for _, sport := range sports {
		share := count * poolBySport[sport] / total
		if share < 1 {
			share = 1
		}
		if assigned+share > count {
			share = count - assigned
		}
		split[sport] = share
		assigned += share
		if assigned >= count {
			break
		}
	}
	for assigned < count {
		split[sports[0]]++
		assigned++
	}
	return split
}

func eventIDs(events []models.SportsEvent) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

func topTeams(events []models.SportsEvent, n int) []string {
	var teams []string
	seen := map[string]bool{}
	for _, ev := range events {
		for _, t := range []string{ev.HomeTeam, ev.AwayTeam} {
			if !seen[t] {
				seen[t] = true
				teams = append(teams, t)
			}
		}
		if len(teams) >= n {
			break
		}
	}
	if len(teams) > n {
		teams = teams[:n]
	}
	return teams
}

// topPlayers ranks prop players by how many priced markets they carry.
func topPlayers(props []models.PlayerProp, n int) []string {
	counts := map[string]int{}
	for _, p := range props {
		counts[p.PlayerName]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func propPreview(props []models.PlayerProp, n int) string {
	var b strings.Builder
	for i, p := range props {
		if i >= n {
			break
		}
		b.WriteString(fmt.Sprintf("- %s %s %.1f (%s, %s)\n", p.PlayerName, p.PropType, p.Line, p.Team, p.Sport))
	}
	return b.String()
}

func linePreview(lines []models.EventOdds, n int) string {
	var b strings.Builder
	for i, l := range lines {
		if i >= n {
			break
		}
		b.WriteString(fmt.Sprintf("- %s @ %s %s %s\n", l.AwayTeam, l.HomeTeam, l.Market, l.Side))
	}
	return b.String()
}
