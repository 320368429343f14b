package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/whistlab/knockoutwhist/pkg/whist"
)

// fakeConn is an in-memory Conn; received messages land on a channel.
type fakeConn struct {
	ch chan ServerMessage

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan ServerMessage, 256)}
}

func (c *fakeConn) Send(msg ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("conn closed")
	}
	c.ch <- msg
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// next blocks for the next message.
func (c *fakeConn) next(t *testing.T) ServerMessage {
	t.Helper()
	select {
	case msg := <-c.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return ServerMessage{}
	}
}

// nextType discards messages until one of the wanted type arrives.
func (c *fakeConn) nextType(t *testing.T, msgType string) ServerMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-c.ch:
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", msgType)
			return ServerMessage{}
		}
	}
}

// expectQuiet asserts no message arrives within a short window.
func (c *fakeConn) expectQuiet(t *testing.T) {
	t.Helper()
	select {
	case msg := <-c.ch:
		t.Fatalf("unexpected message %q: %+v", msg.Type, msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{
		LogBackend: slog.NewBackend(io.Discard),
		Seed:       1,
		Clock:      zeroClock{},
	})
	t.Cleanup(s.Shutdown)
	return s
}

func send(t *testing.T, s *Server, c Conn, msg ClientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	s.Dispatch(c, data)
}

// lockedBuffer collects log output; room lanes write concurrently.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// The configured debug level must reach the per-room loggers, not just the
// server's own.
func TestDebugLevelReachesRoomLoggers(t *testing.T) {
	out := &lockedBuffer{}
	s := New(Config{
		LogBackend: slog.NewBackend(out),
		DebugLevel: "debug",
		Seed:       1,
		Clock:      zeroClock{},
	})
	t.Cleanup(s.Shutdown)

	c := newFakeConn()
	send(t, s, c, ClientMessage{Type: MsgCreate, Name: "alice"})
	c.nextType(t, MsgGameCreated)

	logged := out.String()
	require.Contains(t, logged, "[DBG] ROOM")
	require.Contains(t, logged, "alice joined")
}

func TestDefaultLevelSuppressesDebug(t *testing.T) {
	out := &lockedBuffer{}
	s := New(Config{
		LogBackend: slog.NewBackend(out),
		Seed:       1,
		Clock:      zeroClock{},
	})
	t.Cleanup(s.Shutdown)

	c := newFakeConn()
	send(t, s, c, ClientMessage{Type: MsgCreate, Name: "alice"})
	c.nextType(t, MsgGameCreated)

	require.NotContains(t, out.String(), "[DBG]")
}

func TestDispatchMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	s.Dispatch(c, []byte("{not json"))
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Invalid message", msg.Message)
}

func TestDispatchUnknownType(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: "teleport"})
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Unknown message type", msg.Message)
}

func TestCreateGame(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgCreate, Name: "alice"})
	msg := c.next(t)

	require.Equal(t, MsgGameCreated, msg.Type)
	require.Regexp(t, regexp.MustCompile(`^[A-Z]{4}$`), msg.Code)
	require.NotEmpty(t, msg.SessionID)
	require.NotNil(t, msg.State)
	require.Equal(t, string(PhaseWaiting), msg.State.State)
	require.Len(t, msg.State.Players, 1)
	require.Equal(t, "alice", msg.State.Players[0].Name)
	require.Empty(t, msg.State.Hand)
}

func TestJoinGame(t *testing.T) {
	s := newTestServer(t)
	alice, bob := newFakeConn(), newFakeConn()

	send(t, s, alice, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := alice.nextType(t, MsgGameCreated)

	send(t, s, bob, ClientMessage{Type: MsgJoin, Name: "bob", Code: created.Code})
	joined := bob.nextType(t, MsgJoined)
	require.NotEmpty(t, joined.SessionID)
	require.NotEqual(t, created.SessionID, joined.SessionID)
	require.Len(t, joined.State.Players, 2)

	// The rest of the room hears about it.
	notice := alice.nextType(t, MsgPlayerJoined)
	require.Equal(t, "bob", notice.Player)
	require.False(t, notice.IsAI)
}

func TestJoinUnknownCode(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgJoin, Name: "bob", Code: "ZZZZ"})
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Game not found", msg.Message)
}

func TestJoinStartedGame(t *testing.T) {
	s := newTestServer(t)
	alice, bob := newFakeConn(), newFakeConn()

	send(t, s, alice, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := alice.nextType(t, MsgGameCreated)
	send(t, s, alice, ClientMessage{Type: MsgAddAI})
	send(t, s, alice, ClientMessage{Type: MsgStartGame})
	alice.nextType(t, MsgRoundStart)

	send(t, s, bob, ClientMessage{Type: MsgJoin, Name: "bob", Code: created.Code})
	msg := bob.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Game already started", msg.Message)
}

func TestJoinFullGame(t *testing.T) {
	s := newTestServer(t)
	alice, bob := newFakeConn(), newFakeConn()

	send(t, s, alice, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := alice.nextType(t, MsgGameCreated)
	for i := 1; i < MaxPlayers; i++ {
		send(t, s, alice, ClientMessage{Type: MsgAddAI})
	}

	send(t, s, bob, ClientMessage{Type: MsgJoin, Name: "bob", Code: created.Code})
	msg := bob.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Game full", msg.Message)
}

func TestRoomOpWithoutRoom(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgPlayCard, Card: "A♥"})
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Player not found in any game", msg.Message)
}

func TestErrorsGoToOriginatorOnly(t *testing.T) {
	s := newTestServer(t)
	alice, bob := newFakeConn(), newFakeConn()

	send(t, s, alice, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := alice.nextType(t, MsgGameCreated)
	send(t, s, bob, ClientMessage{Type: MsgJoin, Name: "bob", Code: created.Code})
	bob.nextType(t, MsgJoined)
	alice.nextType(t, MsgPlayerJoined)

	send(t, s, bob, ClientMessage{Type: MsgPlayCard, Card: "A♥"})
	msg := bob.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Not time to play", msg.Message)

	alice.expectQuiet(t)
}

func TestReconnect(t *testing.T) {
	s := newTestServer(t)
	c1 := newFakeConn()

	send(t, s, c1, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := c1.nextType(t, MsgGameCreated)

	// Socket drops; the session lives on.
	s.Disconnect(c1)

	c2 := newFakeConn()
	send(t, s, c2, ClientMessage{Type: MsgReconnect, SessionID: created.SessionID})
	msg := c2.nextType(t, MsgGameState)
	require.Equal(t, created.SessionID, msg.SessionID)
	require.NotNil(t, msg.IsSpectator)
	require.False(t, *msg.IsSpectator)
	require.Equal(t, created.Code, msg.State.Code)

	// The new socket is bound: room ops work again.
	send(t, s, c2, ClientMessage{Type: MsgAddAI})
	notice := c2.nextType(t, MsgPlayerJoined)
	require.True(t, notice.IsAI)
}

func TestReconnectIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	c1 := newFakeConn()

	send(t, s, c1, ClientMessage{Type: MsgCreate, Name: "alice"})
	created := c1.nextType(t, MsgGameCreated)

	c2 := newFakeConn()
	for i := 0; i < 2; i++ {
		send(t, s, c2, ClientMessage{Type: MsgReconnect, SessionID: created.SessionID})
		msg := c2.nextType(t, MsgGameState)
		require.Len(t, msg.State.Players, 1)
	}

	// The stale socket got unbound; its room ops bounce.
	send(t, s, c1, ClientMessage{Type: MsgAddAI})
	msg := c1.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Player not found in any game", msg.Message)
}

func TestReconnectInvalidSession(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgReconnect, SessionID: "bogus"})
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Invalid session", msg.Message)
}

// A game started over the wire reaches the creator's turn with a legal
// seven-card hand, and a legal play is accepted and echoed back.
func TestPlayCardOverWire(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgCreate, Name: "alice"})
	c.nextType(t, MsgGameCreated)
	send(t, s, c, ClientMessage{Type: MsgAddAI})
	send(t, s, c, ClientMessage{Type: MsgStartGame})

	// The hand arrives with the round-start snapshot; the AI may lead
	// afterwards, so keep consuming until the latest state has alice to
	// move.
	var hand []string
	var state *GameStateSnapshot
	deadline := time.After(2 * time.Second)
	for state == nil || state.CurrentPlayer == nil || *state.CurrentPlayer != "alice" {
		select {
		case msg := <-c.ch:
			require.NotEqual(t, MsgError, msg.Type, "unexpected error: %s", msg.Message)
			if msg.State != nil {
				state = msg.State
				if len(msg.State.Hand) > 0 {
					hand = msg.State.Hand
				}
			}
		case <-deadline:
			t.Fatal("never became alice's turn")
		}
	}
	require.Len(t, hand, 7)
	require.Equal(t, string(PhasePlaying), state.State)

	// Pick a legal card: follow the led suit when holding it.
	card := hand[0]
	if len(state.CurrentTrick) > 0 {
		led, err := whist.ParseCard(state.CurrentTrick[0][1])
		require.NoError(t, err)
		for _, h := range hand {
			parsed, err := whist.ParseCard(h)
			require.NoError(t, err)
			if parsed.Suit() == led.Suit() {
				card = h
				break
			}
		}
	}

	send(t, s, c, ClientMessage{Type: MsgPlayCard, Card: card})
	played := c.nextType(t, MsgCardPlayed)
	require.Equal(t, "alice", played.Player)
	require.Equal(t, card, played.Card)
}

func TestPlayAgainOverWire(t *testing.T) {
	s := newTestServer(t)
	c := newFakeConn()

	send(t, s, c, ClientMessage{Type: MsgCreate, Name: "alice"})
	c.nextType(t, MsgGameCreated)

	// Not finished yet.
	send(t, s, c, ClientMessage{Type: MsgPlayAgain})
	msg := c.next(t)
	require.Equal(t, MsgError, msg.Type)
	require.Equal(t, "Game not finished", msg.Message)
}
