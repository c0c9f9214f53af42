package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
	"github.com/robalobadob/checkers/apps/go-server/internal/session"
	"github.com/robalobadob/checkers/apps/go-server/internal/store"
)

type testServer struct {
	*Server
	st store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	st := store.NewMemoryStore()
	srv := New(st)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, st: st}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.Router().ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) newGame(t *testing.T) newGameRes {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/game/new", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res newGameRes
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestNewGame(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/game/new", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	res := decode[newGameRes](t, rr)
	assert.NotEmpty(t, res.GameID)
	assert.NotEmpty(t, res.SeatToken)
	assert.Equal(t, res.GameID, res.Game.GameID)
	assert.Equal(t, game.White, res.Game.ActivePlayer)
	assert.Equal(t, session.PhaseAwaitingSelection, res.Game.Phase)
	assert.Len(t, res.Game.PossibleMoves, 4)
	assert.Equal(t, 1, res.Game.Board[5][0])
	assert.Equal(t, 2, res.Game.Board[0][1])

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, seatCookieName, cookies[0].Name)
	assert.Equal(t, "/game/"+res.GameID, cookies[0].Path)

	gid, ok := parseSeat(res.SeatToken)
	require.True(t, ok)
	assert.Equal(t, res.GameID, gid)

	got := decode[gameView](t, ts.do(t, http.MethodGet, "/game/"+res.GameID, "", ""))
	assert.Equal(t, res.Game.Board, got.Board)
}

func TestUnknownGame(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/game/nope", "", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/no/such/route", "", "").Code)

	tok, _, err := signSeat("nope")
	require.NoError(t, err)
	rr := ts.do(t, http.MethodPost, "/game/nope/reset", tok, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSeatRequired(t *testing.T) {
	ts := newTestServer(t)
	a := ts.newGame(t)
	b := ts.newGame(t)
	body := `{"square":{"row":5,"col":2}}`

	rr := ts.do(t, http.MethodPost, "/game/"+a.GameID+"/select", "", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/game/"+a.GameID+"/select", "garbage", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/game/"+a.GameID+"/select", b.SeatToken, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	t.Setenv("JWT_SECRET", "another-secret")
	rr = ts.do(t, http.MethodPost, "/game/"+a.GameID+"/select", a.SeatToken, body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "token signed with a different secret")
}

func TestSeatCookie(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	req := httptest.NewRequest(http.MethodPost, "/game/"+g.GameID+"/select",
		strings.NewReader(`{"square":{"row":5,"col":2}}`))
	req.AddCookie(&http.Cookie{Name: seatCookieName, Value: g.SeatToken})
	rr := httptest.NewRecorder()
	ts.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestSelectAndMove(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)
	base := "/game/" + g.GameID

	rr := ts.do(t, http.MethodPost, base+"/select", g.SeatToken, `{"square":{"row":5,"col":2}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[gameView](t, rr)
	require.NotNil(t, view.SelectedPiece)
	assert.Equal(t, game.Sq(5, 2), *view.SelectedPiece)
	assert.Equal(t, session.PhasePieceSelected, view.Phase)

	reach := decode[map[string]bool](t, ts.do(t, http.MethodGet, base+"/reachable?to=4,3", "", ""))
	assert.True(t, reach["reachable"])
	reach = decode[map[string]bool](t, ts.do(t, http.MethodGet, base+"/reachable?to=4,4", "", ""))
	assert.False(t, reach["reachable"])
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, base+"/reachable?to=x", "", "").Code)

	rr = ts.do(t, http.MethodPost, base+"/move", g.SeatToken, `{"from":{"row":5,"col":2},"to":{"row":4,"col":3}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[moveRes](t, rr)
	assert.Equal(t, game.White, res.Outcome.Player)
	assert.Equal(t, game.Sq(4, 3), res.Outcome.To)
	assert.Empty(t, res.Outcome.Captured)
	assert.Equal(t, game.Black, res.Game.ActivePlayer)
	assert.Nil(t, res.Game.SelectedPiece)
	assert.Equal(t, 1, res.Game.Board[4][3])
	assert.Equal(t, 0, res.Game.Board[5][2])

	stored, err := ts.st.Get(context.Background(), g.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.Black, stored.State.Active)
}

func TestRejections(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)
	base := "/game/" + g.GameID

	rr := ts.do(t, http.MethodPost, base+"/select", g.SeatToken, `{"square":{"row":5,"col":2}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	// blocked piece: 422 and the selection is dropped
	rr = ts.do(t, http.MethodPost, base+"/select", g.SeatToken, `{"square":{"row":6,"col":1}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rej := decode[rejectRes](t, rr)
	assert.Equal(t, "invalid_selection", rej.Error)
	assert.Nil(t, rej.Game.SelectedPiece)

	stored, err := ts.st.Get(context.Background(), g.GameID)
	require.NoError(t, err)
	assert.Nil(t, stored.State.Selected, "cleared selection is persisted")

	rr = ts.do(t, http.MethodPost, base+"/move", g.SeatToken, `{"from":{"row":5,"col":2},"to":{"row":3,"col":4}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rej = decode[rejectRes](t, rr)
	assert.Equal(t, "invalid_move", rej.Error)
	assert.Equal(t, game.White, rej.Game.ActivePlayer)
	assert.Equal(t, 1, rej.Game.Board[5][2])

	rr = ts.do(t, http.MethodPost, base+"/move", g.SeatToken, `{"from":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFinishedGame(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	b, err := game.ParseBoard(`
.b......
........
........
........
.....b..
....w...
........
........`)
	require.NoError(t, err)
	sess := session.Start()
	sess.State = session.State{
		Board:  b,
		Active: game.White,
		Legal:  game.GenerateLegalMoves(b, game.White),
		Score:  session.Score{White: 11},
	}
	require.NoError(t, ts.st.Save(ctx, sess))
	tok, _, err := signSeat(sess.ID)
	require.NoError(t, err)
	base := "/game/" + sess.ID

	rr := ts.do(t, http.MethodPost, base+"/move", tok, `{"from":{"row":5,"col":4},"to":{"row":3,"col":6}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[moveRes](t, rr)
	assert.Equal(t, []game.Square{game.Sq(4, 5)}, res.Outcome.Captured)
	assert.Equal(t, session.PhaseGameOver, res.Game.Phase)
	assert.Equal(t, session.Stats{IsOver: true, Winner: game.White, Reason: session.ReasonAllCaptured}, res.Game.Stats)
	assert.Empty(t, res.Game.PossibleMoves)

	rr = ts.do(t, http.MethodPost, base+"/select", tok, `{"square":{"row":3,"col":6}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "game_over", decode[rejectRes](t, rr).Error)

	rr = ts.do(t, http.MethodPost, base+"/move", tok, `{"from":{"row":3,"col":6},"to":{"row":2,"col":5}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "game_over", decode[rejectRes](t, rr).Error)

	rr = ts.do(t, http.MethodPost, base+"/reset", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[gameView](t, rr)
	assert.Equal(t, sess.ID, view.GameID)
	assert.Equal(t, session.PhaseAwaitingSelection, view.Phase)
	assert.Equal(t, session.Score{}, view.Score)
	assert.Len(t, view.PossibleMoves, 4)
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)

	list := decode[[]store.Summary](t, ts.do(t, http.MethodGet, "/games", "", ""))
	assert.Empty(t, list)
	assert.NotNil(t, list)

	a := ts.newGame(t)
	b := ts.newGame(t)
	rr := ts.do(t, http.MethodPost, "/game/"+a.GameID+"/move", a.SeatToken, `{"from":{"row":5,"col":0},"to":{"row":4,"col":1}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	list = decode[[]store.Summary](t, ts.do(t, http.MethodGet, "/games", "", ""))
	require.Len(t, list, 2)
	assert.Equal(t, a.GameID, list[0].ID, "most recently updated first")
	assert.Equal(t, game.Black, list[0].Active)
	assert.Equal(t, b.GameID, list[1].ID)

	list = decode[[]store.Summary](t, ts.do(t, http.MethodGet, "/games?limit=1", "", ""))
	assert.Len(t, list, 1)
}

func TestCORSPreflight(t *testing.T) {
	t.Setenv("CLIENT_ORIGIN", "http://example.test")
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodOptions, "/game/new", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://example.test", rr.Header().Get("Access-Control-Allow-Origin"))
}
