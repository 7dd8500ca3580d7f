package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Duration         time.Duration
	Episodes         int
	Expansions       int
	FullPlayouts     int
	DepthThreshold   int
	PlayoutThreshold int
	Exploration      float64
}

type MoveMetric struct {
	Step      int
	Direction string
	Health    int
	SearchMetric
}

type GameMetric struct {
	Level      string
	Outcome    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
	Health     int // at the end of the game
	Food       int // eaten
	Soda       int // drunk
}

// Collector accumulates the counters of one search. Start resets it, so a
// collector serves one search at a time.
type Collector interface {
	Start(depthThreshold, playoutThreshold int, exploration float64)
	AddEpisode()
	AddExpansion()
	AddFullPlayout()
	Complete() SearchMetric
}

type collector struct {
	depthThreshold   int
	playoutThreshold int
	exploration      float64
	startTime        time.Time
	episodes         atomic.Int32
	expansions       atomic.Int32
	fullPlayouts     atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(depthThreshold, playoutThreshold int, exploration float64) {
	m.startTime = time.Now()
	m.depthThreshold = depthThreshold
	m.playoutThreshold = playoutThreshold
	m.exploration = exploration
	m.episodes.Store(0)
	m.expansions.Store(0)
	m.fullPlayouts.Store(0)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

// AddFullPlayout counts playouts that ended on a win or a death.
func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Duration:         time.Since(m.startTime),
		Episodes:         int(m.episodes.Load()),
		Expansions:       int(m.expansions.Load()),
		FullPlayouts:     int(m.fullPlayouts.Load()),
		DepthThreshold:   m.depthThreshold,
		PlayoutThreshold: m.playoutThreshold,
		Exploration:      m.exploration,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(depthThreshold, playoutThreshold int, exploration float64) {}
func (m *dummyCollector) AddEpisode()                                                      {}
func (m *dummyCollector) AddExpansion()                                                    {}
func (m *dummyCollector) AddFullPlayout()                                                  {}
func (m *dummyCollector) Complete() SearchMetric                                           { return SearchMetric{} }
