package meta

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"scavenger/searcher"
)

type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Rewards    RewardsConfig    `yaml:"rewards"`
	Server     ServerConfig     `yaml:"server"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

type SearchConfig struct {
	Episodes         int           `yaml:"episodes"`
	Duration         time.Duration `yaml:"duration"`
	DepthThreshold   int           `yaml:"depth_threshold"`
	PlayoutThreshold int           `yaml:"playout_threshold"`
	Exploration      float64       `yaml:"exploration"`
	Seed             uint64        `yaml:"seed"`
	Distance         string        `yaml:"distance"` // "maze" or "manhattan"
	StateKeyed       bool          `yaml:"state_keyed"`
	Metrics          bool          `yaml:"metrics"`
}

type RewardsConfig struct {
	DeathPenalty  float64 `yaml:"death_penalty"`
	WinBonus      float64 `yaml:"win_bonus"`
	SodaBonus     float64 `yaml:"soda_bonus"`
	FoodBonus     float64 `yaml:"food_bonus"`
	ThreatRadius  int     `yaml:"threat_radius"`
	UnseenScore   float64 `yaml:"unseen_score"`
	SodaTieEdge   float64 `yaml:"soda_tie_edge"`
	FallbackShare float64 `yaml:"fallback_share"`
}

type ServerConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

type ExperimentConfig struct {
	Games     int      `yaml:"games"`
	MaxTurns  int      `yaml:"max_turns"`
	OutputDir string   `yaml:"output_dir"`
	Levels    []string `yaml:"levels"`
}

func Default() Config {
	r := searcher.DefaultRewards()
	return Config{
		Search: SearchConfig{
			Episodes:         EPISODES,
			DepthThreshold:   DEPTH_THRESHOLD,
			PlayoutThreshold: PLAYOUT_THRESHOLD,
			Exploration:      EXPLORATION,
			Distance:         "maze",
		},
		Rewards: RewardsConfig{
			DeathPenalty:  r.DeathPenalty,
			WinBonus:      r.WinBonus,
			SodaBonus:     r.SodaBonus,
			FoodBonus:     r.FoodBonus,
			ThreatRadius:  r.ThreatRadius,
			UnseenScore:   r.UnseenScore,
			SodaTieEdge:   r.SodaTieEdge,
			FallbackShare: r.FallbackShare,
		},
		Server: ServerConfig{
			Addr:    SERVER_ADDR,
			Timeout: SEARCH_TIMEOUT,
		},
		Experiment: ExperimentConfig{
			Games:     10,
			MaxTurns:  MAX_TURNS,
			OutputDir: "results",
		},
	}
}

// Load overlays the YAML file at path on the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.Search.Episodes <= 0 && c.Search.Duration <= 0 {
		return fmt.Errorf("search needs episodes or a duration")
	}
	if c.Search.Distance != "maze" && c.Search.Distance != "manhattan" {
		return fmt.Errorf("unknown distance %q", c.Search.Distance)
	}
	if c.Search.PlayoutThreshold <= 0 {
		return fmt.Errorf("playout threshold must be positive")
	}
	return nil
}

func (c Config) SearchRewards() searcher.Rewards {
	return searcher.Rewards{
		DeathPenalty:  c.Rewards.DeathPenalty,
		WinBonus:      c.Rewards.WinBonus,
		SodaBonus:     c.Rewards.SodaBonus,
		FoodBonus:     c.Rewards.FoodBonus,
		ThreatRadius:  c.Rewards.ThreatRadius,
		UnseenScore:   c.Rewards.UnseenScore,
		SodaTieEdge:   c.Rewards.SodaTieEdge,
		FallbackShare: c.Rewards.FallbackShare,
	}
}

// MCTS builds the search described by the config.
func (c Config) MCTS() *searcher.MCTS {
	s := c.Search
	options := []searcher.Option{
		searcher.WithEpisodes(s.Episodes),
		searcher.WithDuration(s.Duration),
		searcher.WithDepthThreshold(s.DepthThreshold),
		searcher.WithPlayoutThreshold(s.PlayoutThreshold),
		searcher.WithExploration(s.Exploration),
		searcher.WithSeed(s.Seed),
		searcher.WithRewards(c.SearchRewards()),
	}
	if s.Distance == "manhattan" {
		options = append(options, searcher.WithManhattanDistance())
	}
	if s.StateKeyed {
		options = append(options, searcher.WithStateKeyedStats())
	}
	if s.Metrics {
		options = append(options, searcher.WithMetrics())
	}
	return searcher.NewMCTS(options...)
}
