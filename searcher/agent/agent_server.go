package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"scavenger/game"
	"scavenger/maze"
)

// maxRequestBytes bounds a request body or websocket message.
const maxRequestBytes = 1 << 20

// FindMoveRequest carries the world content of one decision cycle.
type FindMoveRequest struct {
	Snapshot *game.Snapshot `json:"snapshot"`
}

type FindMoveResponse struct {
	Direction  game.Direction `json:"direction"`
	Session    string         `json:"session,omitempty"`
	Episodes   int            `json:"episodes,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Server answers decision requests over HTTP and websocket sessions. Searches
// are serialised; distance indexes are built once per level layout.
type Server struct {
	agent   Agent
	timeout time.Duration

	mu      sync.Mutex
	indexes map[uint64]*maze.Index

	upgrader websocket.Upgrader
}

// NewServer returns a server backed by agent. A positive timeout bounds each
// search.
func NewServer(agent Agent, timeout time.Duration) *Server {
	return &Server{
		agent:   agent,
		timeout: timeout,
		indexes: make(map[uint64]*maze.Index),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	// Create a local mux rather than using the global DefaultServeMux
	mux := http.NewServeMux()
	mux.HandleFunc("/findmove", s.handleFindMove)
	mux.HandleFunc("/ws", s.handleSession)
	return mux
}

// StartAgentServer serves s on addr until ctx is cancelled.
func StartAgentServer(ctx context.Context, addr string, s *Server) error {
	log.Info().Msgf("Starting agent server on %s", addr)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("agent server stopped: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("failed to shut down agent server: %w", err)
		}
		log.Info().Msg("Agent server stopped")
		return nil
	}
}

func (s *Server) handleFindMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var payload FindMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	response, err := s.findMove(r.Context(), payload.Snapshot)
	status := http.StatusOK
	if err != nil {
		response.Error = err.Error()
		status = http.StatusInternalServerError
		if errors.Is(err, game.ErrInvalidSnapshot) {
			status = http.StatusBadRequest
		}
		log.Warn().Err(err).Msg("findmove failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("failed to encode move")
	}
}

// handleSession runs one decision cycle per incoming message until the peer
// closes the connection.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	session := uuid.NewString()
	logger := log.With().Str("session", session).Logger()
	logger.Info().Msg("session opened")

	for {
		var payload FindMoveRequest
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Msg("session closed")
			} else {
				logger.Warn().Err(err).Msg("session read failed")
			}
			return
		}

		response, err := s.findMove(r.Context(), payload.Snapshot)
		response.Session = session
		if err != nil {
			response.Error = err.Error()
			logger.Warn().Err(err).Msg("findmove failed")
		}
		if err := conn.WriteJSON(response); err != nil {
			logger.Warn().Err(err).Msg("session write failed")
			return
		}
	}
}

func (s *Server) findMove(ctx context.Context, snap *game.Snapshot) (FindMoveResponse, error) {
	if snap == nil {
		return FindMoveResponse{Direction: game.Stop}, fmt.Errorf("%w: missing snapshot", game.ErrInvalidSnapshot)
	}
	state, err := game.NewState(snap)
	if err != nil {
		return FindMoveResponse{Direction: game.Stop}, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(snap)
	direction, metric, err := s.agent.FindMove(ctx, state, idx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Int("episodes", metric.Episodes).Msg("search timed out, playing best direction so far")
	case err != nil:
		return FindMoveResponse{Direction: game.Stop}, fmt.Errorf("search failed: %w", err)
	}
	return FindMoveResponse{
		Direction:  direction,
		Episodes:   metric.Episodes,
		DurationMs: metric.Duration.Milliseconds(),
	}, nil
}

// index returns the distance index of the snapshot's level. Callers hold mu.
func (s *Server) index(snap *game.Snapshot) *maze.Index {
	key := maze.Fingerprint(snap.Floor, snap.BreakableWalls)
	if idx, ok := s.indexes[key]; ok {
		return idx
	}
	idx := maze.Build(snap.Floor, snap.BreakableWalls)
	s.indexes[key] = idx
	log.Debug().Uint64("fingerprint", key).Int("cells", idx.Len()).Msg("built distance index")
	return idx
}

// Levels is the number of distinct level layouts indexed so far.
func (s *Server) Levels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indexes)
}
