package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"scavenger/engine"
	"scavenger/experiments"
	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/meta"
	"scavenger/searcher/agent"
)

const usage = `usage: scavenger [-config file] [-log-level level] <command> [flags]

commands:
  play        play a level with the search agent
  decide      choose one direction for a snapshot file
  serve       run the agent server
  experiment  run an experiment (depth, distance, episodes, throughput)
`

func main() {
	configPath := flag.String("config", "", "YAML config file")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	config, err := meta.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "play":
		err = play(ctx, config, args)
	case "decide":
		err = decide(ctx, config, args)
	case "serve":
		err = serve(ctx, config, args)
	case "experiment":
		err = experiment(ctx, config, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", flag.Arg(0))
	}
}

func play(ctx context.Context, config meta.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	levelPath := fs.String("level", "levels/corridor.txt", "Level file")
	maxTurns := fs.Int("max-turns", config.Experiment.MaxTurns, "Turns before the episode is abandoned")
	temperature := fs.Float64("temperature", 0, "Sample moves from the visit counts with this temperature instead of playing the best move")
	fs.Parse(args)

	snap, err := game.LoadLevel(*levelPath)
	if err != nil {
		return err
	}
	var a agent.Agent = agent.NewEvaluationAgent(config.MCTS())
	if *temperature > 0 {
		a = agent.NewTrainingAgent(config.MCTS(), *temperature, config.Search.Seed)
	}

	gameMetric, moves, err := engine.LocalEngine(*levelPath, snap, a, *maxTurns).Run(ctx)
	if err != nil {
		return err
	}
	for _, m := range moves {
		fmt.Printf("%3d %-5s health=%d\n", m.Step, m.Direction, m.Health)
	}
	fmt.Printf("%s after %d moves (health %d, food %d, soda %d)\n",
		gameMetric.Outcome, gameMetric.TotalMoves, gameMetric.Health, gameMetric.Food, gameMetric.Soda)
	return nil
}

// decide reads a snapshot in JSON or YAML and prints the chosen direction.
func decide(ctx context.Context, config meta.Config, args []string) error {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "", "Snapshot file (JSON or YAML); a level file when it ends in .txt")
	fs.Parse(args)
	if *snapshotPath == "" {
		return fmt.Errorf("missing -snapshot")
	}

	var snap *game.Snapshot
	if strings.HasSuffix(*snapshotPath, ".txt") {
		loaded, err := game.LoadLevel(*snapshotPath)
		if err != nil {
			return err
		}
		snap = loaded
	} else {
		raw, err := os.ReadFile(*snapshotPath)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		snap = &game.Snapshot{}
		if err := yaml.Unmarshal(raw, snap); err != nil {
			return fmt.Errorf("failed to parse snapshot: %w", err)
		}
	}

	state, err := game.NewState(snap)
	if err != nil {
		return err
	}
	decision, err := config.MCTS().Search(ctx, state, maze.Build(snap.Floor, snap.BreakableWalls))
	if err != nil {
		return err
	}
	for _, s := range decision.Successors {
		log.Info().Msgf("%-5s visits=%d mean=%.3f outcome=%s", s.Direction, s.Visits, s.Mean, s.Outcome)
	}
	fmt.Println(decision.Direction)
	return nil
}

func serve(ctx context.Context, config meta.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", config.Server.Addr, "Listen address")
	fs.Parse(args)

	server := agent.NewServer(agent.NewEvaluationAgent(config.MCTS()), config.Server.Timeout)
	return agent.StartAgentServer(ctx, *addr, server)
}

func experiment(ctx context.Context, config meta.Config, args []string) error {
	fs := flag.NewFlagSet("experiment", flag.ExitOnError)
	name := fs.String("name", "distance", "Experiment to run")
	games := fs.Int("games", config.Experiment.Games, "Games per agent and level")
	fs.Parse(args)

	paths := config.Experiment.Levels
	if len(paths) == 0 {
		matches, err := filepath.Glob("levels/*.txt")
		if err != nil {
			return err
		}
		paths = matches
	}
	rewards := config.SearchRewards()
	settings := experiments.Settings{
		Games:     *games,
		MaxTurns:  config.Experiment.MaxTurns,
		OutputDir: config.Experiment.OutputDir,
		Baseline: metrics.AgentConfig{
			Episodes:         config.Search.Episodes,
			Duration:         config.Search.Duration,
			DepthThreshold:   config.Search.DepthThreshold,
			PlayoutThreshold: config.Search.PlayoutThreshold,
			Exploration:      config.Search.Exploration,
			Distance:         config.Search.Distance,
			StateKeyed:       config.Search.StateKeyed,
			Seed:             config.Search.Seed,
		},
		Rewards: &rewards,
	}
	for _, path := range paths {
		snap, err := game.LoadLevel(path)
		if err != nil {
			return err
		}
		settings.Levels = append(settings.Levels, experiments.Level{Name: filepath.Base(path), Snapshot: snap})
	}

	var err error
	switch *name {
	case "depth":
		_, err = experiments.RunDepthExperiment(ctx, settings)
	case "distance":
		_, err = experiments.RunDistanceExperiment(ctx, settings)
	case "episodes":
		_, err = experiments.RunEpisodesExperiment(ctx, settings)
	case "throughput":
		_, err = experiments.RunThroughputExperiment(ctx, settings)
	default:
		err = fmt.Errorf("unknown experiment %q", *name)
	}
	return err
}
