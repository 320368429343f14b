package server

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
)

// Conn is the transport surface the server writes to: one long-lived,
// message-framed socket per client.
type Conn interface {
	Send(msg ServerMessage) error
	Close() error
}

// Config holds server construction options.
type Config struct {
	// LogBackend supplies per-subsystem loggers.
	LogBackend *slog.Backend

	// DebugLevel is the logging level for every subsystem logger created
	// from LogBackend. Empty or unknown values fall back to info.
	DebugLevel string

	// Seed makes room RNGs (deck shuffles, random trump/starter/caller
	// picks) deterministic when non-zero. Zero seeds from the clock.
	Seed int64

	// Clock paces room lanes; nil selects the wall clock.
	Clock Clock
}

// Server is the session registry: it maps sockets to sessions, sessions to
// rooms, and dispatches client messages onto the owning room's lane.
type Server struct {
	log        slog.Logger
	logBackend *slog.Backend
	logLevel   slog.Level
	clock      Clock

	mu       sync.RWMutex
	rooms    map[string]*Room
	sessions map[string]*Session
	conns    map[string]Conn // session id -> live socket
	bound    map[Conn]string // live socket -> session id

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a server with no rooms.
func New(cfg Config) *Server {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}
	log := cfg.LogBackend.Logger("SRVR")
	log.SetLevel(level)

	return &Server{
		log:        log,
		logBackend: cfg.LogBackend,
		logLevel:   level,
		clock:      clock,
		rooms:      make(map[string]*Room),
		sessions:   make(map[string]*Session),
		conns:      make(map[string]Conn),
		bound:      make(map[Conn]string),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Notify implements Notifier. Messages to sessions without a live socket
// are dropped; the participant catches up from the next snapshot after
// reconnecting.
func (s *Server) Notify(sessionID string, msg ServerMessage) {
	s.mu.RLock()
	c := s.conns[sessionID]
	s.mu.RUnlock()

	if c == nil {
		return
	}
	if err := c.Send(msg); err != nil {
		s.log.Debugf("dropping message to session %.8s: %v", sessionID, err)
	}
}

// Dispatch handles one raw client message from conn. Registry-level
// messages (create, join, reconnect) are handled here; everything else is
// resolved to the caller's room and runs on that room's lane. All errors
// go back to the originating socket only.
func (s *Server) Dispatch(c Conn, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(c, "Invalid message")
		return
	}

	switch msg.Type {
	case MsgCreate:
		s.handleCreate(c, msg)
	case MsgJoin:
		s.handleJoin(c, msg)
	case MsgReconnect:
		s.handleReconnect(c, msg)
	case MsgAddAI, MsgStartGame, MsgCallTrumps, MsgPlayCard, MsgPlayAgain:
		s.dispatchToRoom(c, msg)
	default:
		s.sendError(c, "Unknown message type")
	}
}

// Disconnect unbinds a closed socket. The session and its participant
// survive for reconnection.
func (s *Server) Disconnect(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.bound[c]
	if !ok {
		return
	}
	delete(s.bound, c)
	if s.conns[sessionID] == c {
		delete(s.conns, sessionID)
	}
	s.log.Debugf("socket for session %.8s disconnected", sessionID)
}

// Shutdown stops every room lane and closes every live socket. In-flight
// broadcasts may be lost.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		room.Close()
	}
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.rooms = make(map[string]*Room)
	s.sessions = make(map[string]*Session)
	s.conns = make(map[string]Conn)
	s.bound = make(map[Conn]string)
}

func (s *Server) handleCreate(c Conn, msg ClientMessage) {
	sessionID, err := newSessionID()
	if err != nil {
		s.log.Errorf("create: %v", err)
		s.sendError(c, "Internal error")
		return
	}

	roomLog := s.logBackend.Logger("ROOM")
	roomLog.SetLevel(s.logLevel)

	s.mu.Lock()
	code := s.newRoomCodeLocked()
	room := NewRoom(RoomConfig{
		Code:     code,
		Log:      roomLog,
		Rand:     s.newRoomRNG(),
		Clock:    s.clock,
		Notifier: s,
	})
	s.rooms[code] = room
	s.sessions[sessionID] = &Session{ID: sessionID, Name: msg.Name, RoomCode: code}
	s.conns[sessionID] = c
	s.bound[c] = sessionID
	s.mu.Unlock()

	s.log.Infof("room %s created by %s", code, msg.Name)

	room.Enqueue(func() {
		p, err := room.Join(msg.Name, sessionID)
		if err != nil {
			// Unreachable on a fresh room; surfaced for completeness.
			s.sendError(c, err.Error())
			return
		}
		s.send(c, ServerMessage{
			Type:      MsgGameCreated,
			Code:      code,
			SessionID: sessionID,
			State:     room.Snapshot(p),
		})
	})
}

func (s *Server) handleJoin(c Conn, msg ClientMessage) {
	s.mu.RLock()
	room := s.rooms[msg.Code]
	s.mu.RUnlock()

	if room == nil {
		s.sendError(c, ErrGameNotFound.Error())
		return
	}

	room.Enqueue(func() {
		sessionID, err := newSessionID()
		if err != nil {
			s.log.Errorf("join: %v", err)
			s.sendError(c, "Internal error")
			return
		}

		p, err := room.Join(msg.Name, sessionID)
		if err != nil {
			s.sendError(c, err.Error())
			return
		}

		s.mu.Lock()
		s.sessions[sessionID] = &Session{ID: sessionID, Name: msg.Name, RoomCode: room.Code()}
		s.conns[sessionID] = c
		s.bound[c] = sessionID
		s.mu.Unlock()

		s.send(c, ServerMessage{
			Type:      MsgJoined,
			SessionID: sessionID,
			State:     room.Snapshot(p),
		})
		room.Broadcast(ServerMessage{
			Type:   MsgPlayerJoined,
			Player: msg.Name,
			State:  room.Snapshot(nil),
		})
	})
}

func (s *Server) handleReconnect(c Conn, msg ClientMessage) {
	s.mu.RLock()
	sess := s.sessions[msg.SessionID]
	s.mu.RUnlock()

	if sess == nil {
		s.sendError(c, ErrInvalidSession.Error())
		return
	}

	s.mu.Lock()
	room := s.rooms[sess.RoomCode]
	if room != nil {
		if old, ok := s.conns[sess.ID]; ok && old != c {
			delete(s.bound, old)
		}
		s.conns[sess.ID] = c
		s.bound[c] = sess.ID
	}
	s.mu.Unlock()

	if room == nil {
		s.sendError(c, ErrGameNotFound.Error())
		return
	}

	room.Enqueue(func() {
		p, isSpectator := room.HumanBySession(sess.ID)
		if p == nil {
			s.sendError(c, ErrPlayerNotFound.Error())
			return
		}

		var state *GameStateSnapshot
		if isSpectator {
			state = room.Snapshot(nil)
		} else {
			state = room.Snapshot(p)
		}
		s.send(c, ServerMessage{
			Type:        MsgGameState,
			State:       state,
			IsSpectator: &isSpectator,
			SessionID:   sess.ID,
		})
	})
}

func (s *Server) dispatchToRoom(c Conn, msg ClientMessage) {
	s.mu.RLock()
	var sess *Session
	var room *Room
	if sessionID, ok := s.bound[c]; ok {
		sess = s.sessions[sessionID]
		if sess != nil {
			room = s.rooms[sess.RoomCode]
		}
	}
	s.mu.RUnlock()

	if sess == nil || room == nil {
		s.sendError(c, "Player not found in any game")
		return
	}

	room.Enqueue(func() {
		p, _ := room.HumanBySession(sess.ID)
		if p == nil {
			s.sendError(c, ErrPlayerNotFound.Error())
			return
		}

		var err error
		switch msg.Type {
		case MsgAddAI:
			err = room.AddAI(msg.Name)
		case MsgStartGame:
			err = room.StartGame()
		case MsgCallTrumps:
			err = room.CallTrumps(p, msg.Suit)
		case MsgPlayCard:
			err = room.PlayCard(p, msg.Card)
		case MsgPlayAgain:
			if err = room.Reset(); err == nil {
				s.send(c, ServerMessage{Type: MsgPlayAgainSuccess, State: room.Snapshot(p)})
			}
		}

		if err == nil {
			return
		}
		if IsGameError(err) {
			s.sendError(c, err.Error())
			return
		}

		// An internal error means the room's invariants can no longer be
		// trusted; tear it down rather than limp on.
		s.log.Errorf("room %s: internal error on %s: %v", room.Code(), msg.Type, err)
		s.teardownRoom(room)
	})
}

// teardownRoom destroys a room and closes the sockets of everyone in it.
func (s *Server) teardownRoom(room *Room) {
	room.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room.Code())
	for id, sess := range s.sessions {
		if sess.RoomCode != room.Code() {
			continue
		}
		if c, ok := s.conns[id]; ok {
			_ = c.Close()
			delete(s.bound, c)
			delete(s.conns, id)
		}
		delete(s.sessions, id)
	}
}

func (s *Server) send(c Conn, msg ServerMessage) {
	if err := c.Send(msg); err != nil {
		s.log.Debugf("send %s failed: %v", msg.Type, err)
	}
}

func (s *Server) sendError(c Conn, message string) {
	s.send(c, ServerMessage{Type: MsgError, Message: message})
}

const roomCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newRoomCodeLocked generates a 4-letter code unused by any live room.
// Caller holds s.mu.
func (s *Server) newRoomCodeLocked() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	for {
		buf := make([]byte, 4)
		for i := range buf {
			buf[i] = roomCodeLetters[s.rng.Intn(len(roomCodeLetters))]
		}
		code := string(buf)
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// newRoomRNG derives an independent per-room RNG from the server seed.
func (s *Server) newRoomRNG() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}
