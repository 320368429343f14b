package server

import (
	"fmt"
	"math/rand"

	"github.com/decred/slog"

	"github.com/whistlab/knockoutwhist/pkg/statemachine"
	"github.com/whistlab/knockoutwhist/pkg/whist"
)

// GamePhase names a room's position in its lifecycle. The values appear
// verbatim in state snapshots.
type GamePhase string

const (
	PhaseWaiting       GamePhase = "waiting"
	PhaseCallingTrumps GamePhase = "calling_trumps"
	PhasePlaying       GamePhase = "playing"
	PhaseFinished      GamePhase = "finished"
)

const (
	// StartingRound is the hand size of the first round; each following
	// round deals one card fewer, down to one.
	StartingRound = 7

	// MinPlayers is the number of participants needed to start.
	MinPlayers = 2

	// MaxPlayers caps the table so a round-seven deal fits in a two-deck
	// shoe with room to spare.
	MaxPlayers = 21
)

// Notifier delivers a message to the live socket bound to a session, if
// one is connected. Sockets live in the server registry, never in the
// room.
type Notifier interface {
	Notify(sessionID string, msg ServerMessage)
}

// roomStateFn is a room state following Rob Pike's state-function pattern.
type roomStateFn = statemachine.StateFn[Room]

// The room states themselves carry no logic; transitions between them are
// triggered by client messages and the AI drive loop.
func roomStateWaiting(r *Room) roomStateFn       { return roomStateWaiting }
func roomStateCallingTrumps(r *Room) roomStateFn { return roomStateCallingTrumps }
func roomStatePlaying(r *Room) roomStateFn       { return roomStatePlaying }
func roomStateFinished(r *Room) roomStateFn      { return roomStateFinished }

// RoomConfig holds everything a new room needs.
type RoomConfig struct {
	Code     string
	Log      slog.Logger
	Rand     *rand.Rand
	Clock    Clock
	Notifier Notifier
}

// Room is one game of Knockout Whist: the active players in turn order,
// the eliminated spectators, and the round/trick state. All mutation
// happens on the room's lane (a single goroutine draining ops), so
// participants never observe half-applied state. Methods other than
// Enqueue, Close and Phase must only be called from the lane.
type Room struct {
	code     string
	log      slog.Logger
	rng      *rand.Rand
	clock    Clock
	notifier Notifier

	players    []*whist.Player
	spectators []*whist.Player

	currentRound int
	trumpSuit    whist.Suit
	currentTrick *whist.Trick

	// Indices into players, -1 when unset. Elimination only removes
	// players between rounds, so mid-round indices stay valid.
	currentPlayer int
	trickStarter  int
	trumpCaller   int

	machine *statemachine.Machine[Room]

	ops  chan func()
	done chan struct{}
}

// NewRoom creates a room in the waiting phase and starts its lane.
func NewRoom(cfg RoomConfig) *Room {
	r := &Room{
		code:          cfg.Code,
		log:           cfg.Log,
		rng:           cfg.Rand,
		clock:         cfg.Clock,
		notifier:      cfg.Notifier,
		currentRound:  StartingRound,
		currentTrick:  whist.NewTrick(),
		currentPlayer: -1,
		trickStarter:  -1,
		trumpCaller:   -1,
		ops:           make(chan func(), 64),
		done:          make(chan struct{}),
	}
	if r.clock == nil {
		r.clock = NewRealClock()
	}
	r.machine = statemachine.New(r, roomStateWaiting)

	go r.run()
	return r
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// run drains the op queue. Ops may sleep on the pacing clock; messages
// arriving meanwhile queue up behind them, which is what enforces the
// room's total order.
func (r *Room) run() {
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.done:
			return
		}
	}
}

// Enqueue schedules op on the room's lane. Ops are dropped once the room
// is closed.
func (r *Room) Enqueue(op func()) {
	select {
	case r.ops <- op:
	case <-r.done:
	}
}

// Close stops the room's lane.
func (r *Room) Close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// Phase returns the room's current lifecycle phase.
func (r *Room) Phase() GamePhase {
	current := r.machine.Current()
	switch fmt.Sprintf("%p", current) {
	case fmt.Sprintf("%p", roomStateCallingTrumps):
		return PhaseCallingTrumps
	case fmt.Sprintf("%p", roomStatePlaying):
		return PhasePlaying
	case fmt.Sprintf("%p", roomStateFinished):
		return PhaseFinished
	}
	return PhaseWaiting
}

func (r *Room) setPhase(p GamePhase) {
	switch p {
	case PhaseCallingTrumps:
		r.machine.Dispatch(roomStateCallingTrumps)
	case PhasePlaying:
		r.machine.Dispatch(roomStatePlaying)
	case PhaseFinished:
		r.machine.Dispatch(roomStateFinished)
	default:
		r.machine.Dispatch(roomStateWaiting)
	}
}

// Join appends a human player to a waiting, non-full room.
func (r *Room) Join(name, sessionID string) (*whist.Player, error) {
	if r.Phase() != PhaseWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if len(r.players) >= MaxPlayers {
		return nil, ErrGameFull
	}

	p := whist.NewHumanPlayer(name, sessionID)
	r.players = append(r.players, p)
	r.log.Debugf("room %s: %s joined (%d players)", r.code, name, len(r.players))
	return p, nil
}

// AddAI appends an AI player. Without a name the seat is numbered after
// the AI players already present.
func (r *Room) AddAI(name string) error {
	if r.Phase() != PhaseWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.players) >= MaxPlayers {
		return ErrGameFull
	}

	if name == "" {
		n := 1
		for _, p := range r.players {
			if p.IsAI {
				n++
			}
		}
		name = fmt.Sprintf("AI %d", n)
	}

	ai := whist.NewAIPlayer(name)
	r.players = append(r.players, ai)
	r.log.Debugf("room %s: added AI player %s", r.code, name)

	r.Broadcast(ServerMessage{
		Type:   MsgPlayerJoined,
		Player: ai.Name,
		IsAI:   true,
		State:  r.Snapshot(nil),
	})
	return nil
}

// StartGame moves a waiting room into round seven.
func (r *Room) StartGame() error {
	if r.Phase() != PhaseWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.players) < MinPlayers {
		return ErrNeedTwoPlayers
	}

	r.log.Infof("room %s: starting game with %d players", r.code, len(r.players))
	if err := r.startTrumpSelection(); err != nil {
		return err
	}
	r.driveAI()
	return nil
}

// CallTrumps applies the trump caller's suit choice and starts the round.
func (r *Room) CallTrumps(p *whist.Player, suitStr string) error {
	if err := r.callTrumps(p, suitStr); err != nil {
		return err
	}
	r.driveAI()
	return nil
}

func (r *Room) callTrumps(p *whist.Player, suitStr string) error {
	if r.Phase() != PhaseCallingTrumps {
		return ErrNotTimeToCallTrumps
	}
	if r.trumpCaller < 0 || r.players[r.trumpCaller] != p {
		return ErrNotYourTrumpCall
	}
	suit := whist.Suit(suitStr)
	if !whist.ValidSuit(suit) {
		return ErrInvalidSuit
	}

	r.trumpSuit = suit
	r.log.Debugf("room %s: %s called %s as trumps", r.code, p.Name, suit)
	r.startRound()
	return nil
}

// PlayCard validates and applies one play, then lets any consecutive AI
// turns run.
func (r *Room) PlayCard(p *whist.Player, cardStr string) error {
	if err := r.playCard(p, cardStr); err != nil {
		return err
	}
	r.driveAI()
	return nil
}

func (r *Room) playCard(p *whist.Player, cardStr string) error {
	card, err := whist.ParseCard(cardStr)
	if err != nil {
		return ErrInvalidCard
	}
	if err := r.validatePlay(p, card); err != nil {
		return err
	}

	p.RemoveCard(card)
	if err := r.currentTrick.AddPlay(p, card); err != nil {
		return fmt.Errorf("room %s: %w", r.code, err)
	}

	next := r.nextIndexAfter(p)
	r.currentPlayer = next

	msg := ServerMessage{
		Type:   MsgCardPlayed,
		Player: p.Name,
		Card:   card.String(),
	}
	if next >= 0 {
		msg.NextPlayer = r.players[next].Name
	}
	msg.State = r.Snapshot(nil)
	r.Broadcast(msg)

	// Keep the player's own hand view in sync; snapshots on broadcast
	// messages never carry hands.
	if !p.IsAI {
		r.notifier.Notify(p.SessionID, ServerMessage{Type: MsgGameState, State: r.Snapshot(p)})
	}

	if r.currentTrick.IsComplete(len(r.players)) {
		r.finishTrick()
	}
	return nil
}

// validatePlay enforces play legality without mutating anything.
func (r *Room) validatePlay(p *whist.Player, card whist.Card) error {
	if r.Phase() != PhasePlaying {
		return ErrNotTimeToPlay
	}
	if r.currentPlayer < 0 || r.players[r.currentPlayer] != p {
		return ErrNotYourTurn
	}
	if r.currentTrick.HasPlayed(p) {
		return ErrAlreadyPlayed
	}
	if !p.HasCard(card) {
		return ErrCardNotInHand
	}
	if led, ok := r.currentTrick.LedSuit(); ok {
		if p.HasSuit(led) && card.Suit() != led {
			return ErrMustFollowSuit
		}
	}
	return nil
}

// Reset restores a finished room to a waiting lobby with spectators
// rejoining the roster.
func (r *Room) Reset() error {
	if r.Phase() != PhaseFinished {
		return ErrGameNotFinished
	}

	r.currentRound = StartingRound
	r.trumpSuit = ""
	r.currentTrick = whist.NewTrick()
	r.currentPlayer = -1
	r.trickStarter = -1
	r.trumpCaller = -1
	r.setPhase(PhaseWaiting)

	r.players = append(r.players, r.spectators...)
	r.spectators = nil
	for _, p := range r.players {
		p.Hand = nil
		p.TricksWon = 0
	}

	r.log.Infof("room %s: reset for a new game", r.code)
	r.broadcastGameState()
	return nil
}

// startTrumpSelection deals the round. Round seven picks a random trump
// and starter; later rounds wait for the designated caller.
func (r *Room) startTrumpSelection() error {
	r.setPhase(PhaseCallingTrumps)
	if err := r.dealCards(); err != nil {
		return err
	}

	if r.currentRound == StartingRound {
		r.trumpSuit = whist.Suits[r.rng.Intn(len(whist.Suits))]
		r.currentPlayer = r.rng.Intn(len(r.players))
		r.trickStarter = r.currentPlayer
		r.log.Debugf("room %s: round %d auto trump %s, %s starts",
			r.code, r.currentRound, r.trumpSuit, r.players[r.trickStarter].Name)
		r.startRound()
		return nil
	}

	r.Broadcast(ServerMessage{
		Type:    MsgTrumpSelection,
		Chooser: r.players[r.trumpCaller].Name,
		State:   r.Snapshot(nil),
	})
	return nil
}

// dealCards deals currentRound cards to every active player from a fresh
// multi-deck shoe and resets trick counts.
func (r *Room) dealCards() error {
	deck := whist.NewDeck(whist.DecksRequired(r.currentRound, len(r.players)), r.rng)
	if deck.Size() < r.currentRound*len(r.players) {
		return fmt.Errorf("room %s: deck too small for round %d with %d players",
			r.code, r.currentRound, len(r.players))
	}

	for _, p := range r.players {
		p.Hand = make([]whist.Card, 0, r.currentRound)
		for i := 0; i < r.currentRound; i++ {
			card, _ := deck.Draw()
			p.Hand = append(p.Hand, card)
		}
		p.SortHand()
		p.TricksWon = 0
	}

	r.broadcastGameState()
	return nil
}

// startRound enters trick play with the trick starter leading.
func (r *Room) startRound() {
	r.setPhase(PhasePlaying)
	r.currentTrick = whist.NewTrick()
	r.currentPlayer = r.trickStarter

	r.Broadcast(ServerMessage{Type: MsgRoundStart, State: r.Snapshot(nil)})
	r.broadcastGameState()
}

// finishTrick resolves a full trick: announce it, credit the winner after
// the display pause, then either start the next trick or end the round.
// The pauses sleep on the room lane, so messages arriving meanwhile queue
// up and cannot jump the pacing.
func (r *Room) finishTrick() {
	r.Broadcast(ServerMessage{Type: MsgTrickComplete, State: r.Snapshot(nil)})

	winner := r.currentTrick.DetermineWinner(r.trumpSuit)
	winner.TricksWon++

	r.clock.Sleep(trickWinnerDelay)

	r.Broadcast(ServerMessage{
		Type:   MsgTrickWinner,
		Winner: winner.Name,
		State:  r.Snapshot(nil),
	})

	r.currentPlayer = r.indexOf(winner)
	r.trickStarter = r.currentPlayer
	r.currentTrick = whist.NewTrick()

	r.clock.Sleep(nextTrickDelay)

	if r.handsEmpty() {
		r.endRound()
		return
	}
	r.Broadcast(ServerMessage{Type: MsgNextTrick, State: r.Snapshot(nil)})
}

// endRound knocks out the trickless players, then either finishes the game
// or hands the next round's trump call to a top scorer.
func (r *Room) endRound() {
	var eliminated []*whist.Player
	for _, p := range r.players {
		if p.TricksWon == 0 {
			eliminated = append(eliminated, p)
		}
	}
	for _, p := range eliminated {
		r.log.Debugf("room %s: %s eliminated after round %d", r.code, p.Name, r.currentRound)
		r.moveToSpectator(p)
	}

	if len(r.players) <= 1 || r.currentRound <= 1 {
		r.setPhase(PhaseFinished)
		if len(r.players) > 0 {
			r.log.Infof("room %s: game over, %s wins", r.code, r.players[0].Name)
			r.Broadcast(ServerMessage{
				Type:   MsgGameOver,
				Winner: r.players[0].Name,
				State:  r.Snapshot(nil),
			})
		}
		return
	}

	maxTricks := 0
	for _, p := range r.players {
		if p.TricksWon > maxTricks {
			maxTricks = p.TricksWon
		}
	}
	var choosers []int
	for i, p := range r.players {
		if p.TricksWon == maxTricks {
			choosers = append(choosers, i)
		}
	}
	r.trumpCaller = choosers[r.rng.Intn(len(choosers))]

	r.currentRound--
	r.trumpSuit = ""
	r.currentPlayer = r.trumpCaller
	r.trickStarter = r.trumpCaller

	r.Broadcast(ServerMessage{
		Type:        MsgRoundEnd,
		TrumpCaller: r.players[r.trumpCaller].Name,
		State:       r.Snapshot(nil),
	})

	if err := r.startTrumpSelection(); err != nil {
		r.log.Errorf("room %s: failed to start round %d: %v", r.code, r.currentRound, err)
	}
}

// moveToSpectator removes a player from the rotation. Humans stay in the
// room as spectators and are told; eliminated AI players are discarded.
func (r *Room) moveToSpectator(p *whist.Player) {
	idx := r.indexOf(p)
	if idx < 0 {
		return
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if p.IsAI {
		return
	}
	r.spectators = append(r.spectators, p)
	r.notifier.Notify(p.SessionID, ServerMessage{Type: MsgEliminated})
	spect := true
	r.notifier.Notify(p.SessionID, ServerMessage{
		Type:        MsgGameState,
		State:       r.Snapshot(nil),
		IsSpectator: &spect,
	})
}

// driveAI advances consecutive AI turns until control reaches a human, the
// game finishes, or the room empties. Each decision is fronted by a pacing
// sleep on the lane.
func (r *Room) driveAI() {
	for {
		switch r.Phase() {
		case PhaseCallingTrumps:
			if r.trumpCaller < 0 || !r.players[r.trumpCaller].IsAI {
				return
			}
			caller := r.players[r.trumpCaller]
			r.clock.Sleep(aiTrumpDelay)
			suit := whist.ChooseTrump(caller.Hand)
			if err := r.callTrumps(caller, string(suit)); err != nil {
				r.log.Errorf("room %s: AI trump call failed: %v", r.code, err)
				return
			}

		case PhasePlaying:
			if r.currentPlayer < 0 || !r.players[r.currentPlayer].IsAI {
				return
			}
			p := r.players[r.currentPlayer]
			r.clock.Sleep(aiPlayDelay)
			card := whist.ChooseCard(p.Hand, r.currentTrick, r.trumpSuit)
			if err := r.playCard(p, card.String()); err != nil {
				r.log.Errorf("room %s: AI play failed: %v", r.code, err)
				return
			}

		default:
			return
		}
	}
}

// HumanBySession finds the human bound to a session among active players
// and spectators. The second return reports spectator status.
func (r *Room) HumanBySession(sessionID string) (*whist.Player, bool) {
	for _, p := range r.players {
		if !p.IsAI && p.SessionID == sessionID {
			return p, false
		}
	}
	for _, p := range r.spectators {
		if p.SessionID == sessionID {
			return p, true
		}
	}
	return nil, false
}

// Snapshot builds the client view of the room. With forPlayer set (and
// still active) the snapshot includes that player's hand.
func (r *Room) Snapshot(forPlayer *whist.Player) *GameStateSnapshot {
	snap := &GameStateSnapshot{
		Code:         r.code,
		CurrentRound: r.currentRound,
		TrumpSuit:    string(r.trumpSuit),
		CurrentTrick: make([]PlaySnapshot, 0, r.currentTrick.Size()),
		Players:      make([]PlayerSnapshot, 0, len(r.players)),
		Spectators:   make([]string, 0, len(r.spectators)),
		State:        string(r.Phase()),
	}

	for _, pc := range r.currentTrick.Plays() {
		snap.CurrentTrick = append(snap.CurrentTrick, PlaySnapshot{pc.Player.Name, pc.Card.String()})
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			Name:       p.Name,
			TrickCount: p.TricksWon,
			IsAI:       p.IsAI,
		})
	}
	for _, s := range r.spectators {
		snap.Spectators = append(snap.Spectators, s.Name)
	}

	if r.Phase() == PhasePlaying && r.currentPlayer >= 0 && r.currentPlayer < len(r.players) {
		name := r.players[r.currentPlayer].Name
		snap.CurrentPlayer = &name
	}
	if r.trumpCaller >= 0 && r.trumpCaller < len(r.players) {
		name := r.players[r.trumpCaller].Name
		snap.TrumpCaller = &name
	}
	if forPlayer != nil && r.indexOf(forPlayer) >= 0 {
		snap.Hand = forPlayer.HandStrings()
	}

	return snap
}

// Broadcast sends msg to every connected human in the room, spectators
// included. AI seats have no socket and are skipped.
func (r *Room) Broadcast(msg ServerMessage) {
	for _, p := range r.players {
		if !p.IsAI {
			r.notifier.Notify(p.SessionID, msg)
		}
	}
	for _, s := range r.spectators {
		r.notifier.Notify(s.SessionID, msg)
	}
}

// broadcastGameState sends each human their own view, hand included for
// active players.
func (r *Room) broadcastGameState() {
	for _, p := range r.players {
		if !p.IsAI {
			r.notifier.Notify(p.SessionID, ServerMessage{Type: MsgGameState, State: r.Snapshot(p)})
		}
	}
	for _, s := range r.spectators {
		r.notifier.Notify(s.SessionID, ServerMessage{Type: MsgGameState, State: r.Snapshot(nil)})
	}
}

func (r *Room) indexOf(p *whist.Player) int {
	for i, q := range r.players {
		if q == p {
			return i
		}
	}
	return -1
}

// nextIndexAfter returns the cyclic successor of p in the rotation, or the
// first player when p is no longer seated.
func (r *Room) nextIndexAfter(p *whist.Player) int {
	if len(r.players) == 0 {
		return -1
	}
	idx := r.indexOf(p)
	if idx < 0 {
		return 0
	}
	return (idx + 1) % len(r.players)
}

func (r *Room) handsEmpty() bool {
	for _, p := range r.players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}
