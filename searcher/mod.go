package searcher

// Hyperparameters for MCTS

const (
	DefaultEpisodes         = 40 // Iterations per decision cycle
	DefaultDepthThreshold   = 10 // Maze distance after which the tree stops growing
	DefaultPlayoutThreshold = 1  // Greedy steps per playout
	DefaultExploration      = 10.0
)

// Rewards are the constants of the playout scoring and the shaping heuristic.
// Decisive rewards and bonuses are divided by depth+1 when applied.
type Rewards struct {
	DeathPenalty  float64 // Paid for stepping onto an enemy
	WinBonus      float64 // Paid for stepping onto the exit
	SodaBonus     float64
	FoodBonus     float64
	ThreatRadius  int     // Maze distance within which enemies shape the reward
	UnseenScore   float64 // Mean reward reported for children never backed up
	SodaTieEdge   float64 // Multiplier favouring soda when food and soda are equidistant
	FallbackShare float64 // Share of the progress paid toward the farther item
}

func DefaultRewards() Rewards {
	return Rewards{
		DeathPenalty:  30.01,
		WinBonus:      100.01,
		SodaBonus:     20,
		FoodBonus:     10,
		ThreatRadius:  3,
		UnseenScore:   -30,
		SodaTieEdge:   1.05,
		FallbackShare: 0.5,
	}
}
