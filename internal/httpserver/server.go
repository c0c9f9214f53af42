// internal/httpserver/server.go
//
// HTTP server wiring for the checkers backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", GET /games, GET /game/{id},
//     GET /game/{id}/reachable, GET /game/{id}/ws.
//   - Seat-protected endpoints: POST /game/{id}/select, /move, /reset.
//   - Persisting every mutation to the store and pushing it to observers.
//
// Notes:
//   - Mutations are serialised by one server-wide mutex, so concurrent moves
//     on a game are applied one at a time against the latest stored state.
//   - Rule violations answer 422 with an error code and the current game.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
	"github.com/robalobadob/checkers/apps/go-server/internal/session"
	"github.com/robalobadob/checkers/apps/go-server/internal/store"
)

// Server bundles router, session store and observer hub.
type Server struct {
	r     *chi.Mux
	store store.Store
	hub   *Hub

	mu   sync.Mutex // serialises mutations
	done chan struct{}
}

// New constructs a Server, starts its hub, installs middleware, and registers routes.
func New(st store.Store) *Server {
	s := &Server{r: chi.NewRouter(), store: st, hub: NewHub(), done: make(chan struct{})}
	go s.hub.Run(s.done)

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(corsFromEnv)     // credentials-friendly CORS

	// Websocket observers are long-lived; keep them out of the timeout group.
	s.r.Get("/game/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"checkers-go","endpoints":["/health","POST /game/new","GET /game/{id}","GET /games"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Reads are open to anyone holding the id.
		r.Post("/game/new", s.handleNewGame)
		r.Get("/games", s.handleList)
		r.Get("/game/{id}", s.handleGet)
		r.Get("/game/{id}/reachable", s.handleReachable)

		// Mutations need the game's seat token.
		r.With(requireSeat).Post("/game/{id}/select", s.handleSelect)
		r.With(requireSeat).Post("/game/{id}/move", s.handleMove)
		r.With(requireSeat).Post("/game/{id}/reset", s.handleReset)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Close stops the observer hub.
func (s *Server) Close() { close(s.done) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ payloads -----------------------------------

// gameView is the client-facing state of one game.
type gameView struct {
	GameID        string              `json:"gameId"`
	Board         [][]int             `json:"board"`
	SelectedPiece *game.Square        `json:"selectedPiece"`
	ActivePlayer  game.Player         `json:"activePlayer"`
	PossibleMoves []session.MoveEntry `json:"possiblePlayerMovements"`
	Score         session.Score       `json:"score"`
	Stats         session.Stats       `json:"stats"`
	Phase         session.Phase       `json:"phase"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func viewOf(sess *session.Session) gameView {
	snap := session.NewSnapshot(sess.State)
	return gameView{
		GameID:        sess.ID,
		Board:         snap.Board,
		SelectedPiece: snap.SelectedPiece,
		ActivePlayer:  snap.ActivePlayer,
		PossibleMoves: snap.PossibleMoves,
		Score:         snap.Score,
		Stats:         snap.Stats,
		Phase:         sess.State.Phase(),
		UpdatedAt:     sess.UpdatedAt,
	}
}

type newGameRes struct {
	GameID    string   `json:"gameId"`
	SeatToken string   `json:"seatToken"`
	Game      gameView `json:"game"`
}

type selectReq struct {
	Square game.Square `json:"square"`
}

type moveReq struct {
	From game.Square `json:"from"`
	To   game.Square `json:"to"`
}

type moveRes struct {
	Outcome session.Outcome `json:"outcome"`
	Game    gameView        `json:"game"`
}

type rejectRes struct {
	Error string   `json:"error"`
	Game  gameView `json:"game"`
}

// ------------------------------- GAME --------------------------------------

// handleNewGame creates and stores a session, then issues its seat token.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess := session.Start()
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	tok, exp, err := signSeat(sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign seat token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setSeatCookie(w, sess.ID, tok, exp)
	log.Info().Str("gameId", sess.ID).Msg("game created")
	writeJSON(w, http.StatusOK, newGameRes{GameID: sess.ID, SeatToken: tok, Game: viewOf(sess)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleList returns recent games; ?limit= caps the count.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.store.List(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReachable answers the hover preview for the current selection.
func (s *Server) handleReachable(w http.ResponseWriter, r *http.Request) {
	to, err := game.ParseSquare(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, `{"error":"bad_square"}`, http.StatusBadRequest)
		return
	}
	sess, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reachable": sess.Reachable(to)})
}

// handleSelect records a selection. A rejected selection still clears the
// previous one, so the new state is saved and published either way.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.load(w, r)
	if !ok {
		return
	}
	selErr := sess.SelectPiece(req.Square)
	if !errors.Is(selErr, session.ErrGameOver) {
		if !s.commit(r.Context(), w, sess, "state", viewOf(sess)) {
			return
		}
	}
	if selErr != nil {
		s.reject(w, sess, selErr)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleMove plays from->to; rejected moves leave the game untouched.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.load(w, r)
	if !ok {
		return
	}
	out, err := sess.RequestMove(req.From, req.To)
	if err != nil {
		s.reject(w, sess, err)
		return
	}
	res := moveRes{Outcome: out, Game: viewOf(sess)}
	if !s.commit(r.Context(), w, sess, "move", res) {
		return
	}
	ev := log.Info().Str("gameId", sess.ID).Stringer("from", out.From).Stringer("to", out.To).Int("captured", len(out.Captured))
	if sess.State.Stats.IsOver {
		ev = ev.Stringer("winner", sess.State.Stats.Winner).Str("reason", string(sess.State.Stats.Reason))
	}
	ev.Msg("move applied")
	writeJSON(w, http.StatusOK, res)
}

// handleReset restarts the game under the same id.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.load(w, r)
	if !ok {
		return
	}
	sess.Reset()
	view := viewOf(sess)
	if !s.commit(r.Context(), w, sess, "state", view) {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	s.hub.serveWS(w, r, id, func() any {
		sess, err := s.store.Get(context.Background(), id)
		if err != nil {
			return nil
		}
		return viewOf(sess)
	})
}

// ------------------------------- helpers -----------------------------------

// load fetches the {id} session, answering 404/500 itself when it cannot.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Msg("load game")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

// commit saves sess and publishes payload to its observers.
func (s *Server) commit(ctx context.Context, w http.ResponseWriter, sess *session.Session, typ string, payload any) bool {
	if err := s.store.Save(ctx, sess); err != nil {
		log.Error().Err(err).Str("gameId", sess.ID).Msg("save game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.hub.Publish(sess.ID, typ, payload)
	return true
}

// reject answers a rule violation with its code and the current game.
func (s *Server) reject(w http.ResponseWriter, sess *session.Session, err error) {
	var code string
	switch {
	case errors.Is(err, session.ErrGameOver):
		code = "game_over"
	case errors.Is(err, session.ErrInvalidSelection):
		code = "invalid_selection"
	case errors.Is(err, session.ErrInvalidMove):
		code = "invalid_move"
	default:
		log.Error().Err(err).Str("gameId", sess.ID).Msg("unexpected session error")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	log.Debug().Err(err).Str("gameId", sess.ID).Msg("rejected")
	writeJSON(w, http.StatusUnprocessableEntity, rejectRes{Error: code, Game: viewOf(sess)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
