package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/internal/agent"
	"github.com/quarrylabs/quarry/internal/checkpoint"
	"github.com/quarrylabs/quarry/internal/telemetry"
	"github.com/quarrylabs/quarry/provider"
	"github.com/quarrylabs/quarry/tools/web_fetch"
	"github.com/quarrylabs/quarry/tools/web_search"
)

var version = "dev"

func main() {
	var root = &cobra.Command{Use: "quarry", Short: "Goal-directed web research agent"}

	var cfgPath string
	var maxIterations int
	var target int
	var demo bool
	var run = &cobra.Command{
		Use:   "run [goal]",
		Short: "Run the agent until the goal is met or the iteration budget runs out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if maxIterations > 0 {
				cfg.General.MaxIterations = maxIterations
			}
			if demo {
				cfg.Search.DemoFallback = true
			}
			return runAgent(cmd.Context(), cfg, args[0], target)
		},
	}
	run.Flags().StringVar(&cfgPath, "config", "", "path to config file")
	run.Flags().IntVar(&maxIterations, "max-iterations", 0, "override iteration budget")
	run.Flags().IntVar(&target, "target", 0, "required result count (0 = infer from goal)")
	run.Flags().BoolVar(&demo, "demo", false, "use canned results when search is unavailable")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(run, versionCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runAgent(ctx context.Context, cfg *config.Config, goal string, target int) error {
	metrics := telemetry.NewTelemetry(cfg.Telemetry)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		if !errors.Is(err, provider.ErrNoProvider) {
			return err
		}
		log.Printf("[QUARRY] no planning provider configured, using heuristic planning")
		llm = nil
	}

	searchKey := ""
	switch web_search.Provider(cfg.Search.Provider) {
	case web_search.BraveProvider:
		searchKey = cfg.Search.BraveAPIKey
	case web_search.SerperProvider:
		searchKey = cfg.Search.SerperAPIKey
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), searchKey)
	if err != nil {
		return err
	}

	fetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetch.Backend), cfg.Fetch.Timeout, cfg.Fetch.MaxChars)
	if err != nil {
		return err
	}

	store, err := checkpoint.NewStore(cfg.Checkpoint)
	if err != nil {
		return err
	}
	var sink agent.CheckpointSink
	if store != nil {
		defer store.Close()
		sink = store
	}

	planner := agent.NewPlanner(llm, metrics)
	executor := agent.NewExecutor(searcher, fetcher, metrics, cfg.Search, cfg.Pacing)
	runner := agent.NewRunner(planner, executor, sink)

	st, err := runner.Run(ctx, goal, cfg.General.MaxIterations, target)
	if st != nil {
		fmt.Println(agent.Render(st))
	}
	return err
}
