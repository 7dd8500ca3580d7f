package meta

import "time"

// EPISODES defines the number of simulations per decision.
const EPISODES = 40

// DEPTH_THRESHOLD defines the maze distance after which the tree stops growing.
const DEPTH_THRESHOLD = 10

// PLAYOUT_THRESHOLD defines the number of greedy steps per playout.
const PLAYOUT_THRESHOLD = 1

// EXPLORATION defines the UCT exploration constant.
const EXPLORATION = 10.0

// MAX_TURNS defines the length after which an episode is abandoned.
const MAX_TURNS = 300

const SERVER_ADDR = ":8080"

const SEARCH_TIMEOUT = 2 * time.Second
