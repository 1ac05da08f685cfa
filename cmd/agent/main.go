package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parlayiq/picks-engine/internal/agent"
	"github.com/parlayiq/picks-engine/internal/cache"
	"github.com/parlayiq/picks-engine/internal/llm"
	"github.com/parlayiq/picks-engine/internal/research"
	"github.com/parlayiq/picks-engine/internal/scheduler"
	"github.com/parlayiq/picks-engine/internal/store"
	"github.com/parlayiq/picks-engine/pkg/config"
	"github.com/parlayiq/picks-engine/pkg/database"
	"github.com/parlayiq/picks-engine/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		mode       = flag.String("mode", "both", "pipeline to run: props, teams, both, schedule")
		propsCount = flag.Int("props-count", 6, "number of player prop picks to generate")
		teamsCount = flag.Int("teams-count", 4, "number of team picks to generate")
		date       = flag.String("date", "", "slate date YYYY-MM-DD (default today)")
		tomorrow   = flag.Bool("tomorrow", false, "run for tomorrow's slate")
		testMode   = flag.Bool("test", false, "dry run: research and synthesize but store nothing")
		summary    = flag.Bool("summary", false, "print recently stored picks and exit")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	log := logger.InitLogger("info", cfg.IsDevelopment())

	if err := cfg.ValidateAgent(); err != nil {
		log.WithError(err).Error("Configuration incomplete")
		return 1
	}

	db, err := database.NewConnection(cfg.DSN(), cfg.IsDevelopment(), database.Options{
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		log.WithError(err).Error("Database connection failed")
		return 1
	}
	defer db.Close()

	st := store.New(db, log)

	var cacheSvc *cache.Service
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Invalid REDIS_URL, running without cache")
		} else {
			cacheSvc = cache.New(redis.NewClient(opts))
		}
	}

	llmClient := llm.NewClient(cfg, cacheSvc, log)
	statmuse := research.NewStatMuseClient(cfg.StatMuseURL, cfg.StatMuseQueryDelay, log)
	websearch := research.NewWebSearchClient(cfg.BackendURL, cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID, log)
	scraped := research.NewScrapedStore(cfg.ScrapedDataDir, log)

	orch := research.NewOrchestrator(llmClient, statmuse, websearch, scraped, research.Limits{
		StatsQueries:    cfg.StatsQueryCap,
		WebQueries:      cfg.WebQueryCap,
		AdaptiveQueries: cfg.AdaptiveQueryCap,
		MinInsights:     cfg.MinInsights,
		ScrapedMaxAge:   time.Duration(cfg.ScrapedMaxAgeHours) * time.Hour,
	}, log)

	runner := agent.NewRunner(cfg, st, llmClient, orch, cacheSvc, log)
	ctx := context.Background()

	if *summary {
		runner.Summary(ctx, 25)
		return 0
	}

	day, err := runner.ResolveDay(*date, *tomorrow)
	if err != nil {
		log.WithError(err).Error("Bad date flag")
		return 1
	}

	switch *mode {
	case "props":
		if _, err := runner.RunProps(ctx, day, *propsCount, *testMode); err != nil {
			log.WithError(err).Error("Props run failed")
			return 1
		}
	case "teams":
		if _, err := runner.RunTeams(ctx, day, *teamsCount, *testMode); err != nil {
			log.WithError(err).Error("Teams run failed")
			return 1
		}
	case "both":
		_, _, propsErr, teamsErr := runner.RunBoth(ctx, day, *propsCount, *teamsCount, *testMode)
		if propsErr != nil {
			log.WithError(propsErr).Error("Props run failed")
		}
		if teamsErr != nil {
			log.WithError(teamsErr).Error("Teams run failed")
		}
		if propsErr != nil || teamsErr != nil {
			return 1
		}
	case "schedule":
		sched := scheduler.New(runner, log, *propsCount, *teamsCount)
		if err := sched.Start(ctx, cfg.PicksSchedule); err != nil {
			log.WithError(err).Error("Scheduler failed to start")
			return 1
		}
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		sched.Stop()
	default:
		log.WithField("mode", *mode).Error("Unknown mode")
		return 1
	}
	return 0
}
