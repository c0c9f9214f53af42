package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
	"github.com/robalobadob/checkers/apps/go-server/internal/session"
)

func TestHubPublishesPerGame(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	defer close(done)
	go h.Run(done)

	a := &client{gameID: "a", send: make(chan []byte, clientBuffer)}
	b := &client{gameID: "b", send: make(chan []byte, clientBuffer)}
	h.register(a)
	h.register(b)
	require.Equal(t, 1, h.Observers("a"))

	h.Publish("a", "state", map[string]int{"n": 1})

	select {
	case data := <-a.send:
		var msg wsMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "state", msg.Type)
		assert.JSONEq(t, `{"n":1}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no message for game a")
	}
	select {
	case <-b.send:
		t.Fatal("game b received game a's message")
	case <-time.After(50 * time.Millisecond):
	}

	h.unregister(a)
	h.unregister(a) // second call is a no-op
	_, open := <-a.send
	assert.False(t, open)
	assert.Equal(t, 0, h.Observers("a"))
}

func TestHubSlowClientDrops(t *testing.T) {
	c := &client{gameID: "g", send: make(chan []byte, 1)}
	c.deliver([]byte("one"))
	c.deliver([]byte("two")) // buffer full, must not block
	assert.Equal(t, "one", string(<-c.send))
}

func TestHubPublishWithoutRunDoesNotBlock(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Publish("g", "state", nil)
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))
}

func TestWebsocketObserver(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	hs := httptest.NewServer(ts.Router())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/game/" + g.GameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() wsMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	require.Equal(t, "state", first.Type)
	var view gameView
	require.NoError(t, json.Unmarshal(first.Payload, &view))
	assert.Equal(t, g.GameID, view.GameID)

	rr := ts.do(t, http.MethodPost, "/game/"+g.GameID+"/move", g.SeatToken, `{"from":{"row":5,"col":6},"to":{"row":4,"col":7}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	msg := read()
	require.Equal(t, "move", msg.Type)
	var res moveRes
	require.NoError(t, json.Unmarshal(msg.Payload, &res))
	assert.Equal(t, game.Sq(4, 7), res.Outcome.To)
	assert.Equal(t, game.Black, res.Game.ActivePlayer)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "request_state"}))
	msg = read()
	require.Equal(t, "state", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &view))
	assert.Equal(t, session.PhaseAwaitingSelection, view.Phase)
	assert.Equal(t, game.Black, view.ActivePlayer)
}

func TestWebsocketUnknownGame(t *testing.T) {
	ts := newTestServer(t)
	hs := httptest.NewServer(ts.Router())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/game/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
