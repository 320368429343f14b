package server

// Wire protocol: one JSON object per websocket text frame, discriminated by
// the "type" field in both directions.

// Client -> server message types.
const (
	MsgCreate     = "create"
	MsgJoin       = "join"
	MsgReconnect  = "reconnect"
	MsgAddAI      = "addAI"
	MsgStartGame  = "startGame"
	MsgCallTrumps = "callTrumps"
	MsgPlayCard   = "playCard"
	MsgPlayAgain  = "playAgain"
)

// Server -> client message types.
const (
	MsgGameCreated      = "gameCreated"
	MsgJoined           = "joined"
	MsgGameState        = "gameState"
	MsgPlayerJoined     = "playerJoined"
	MsgTrumpSelection   = "trumpSelection"
	MsgRoundStart       = "roundStart"
	MsgCardPlayed       = "cardPlayed"
	MsgTrickComplete    = "trickComplete"
	MsgTrickWinner      = "trickWinner"
	MsgNextTrick        = "nextTrick"
	MsgRoundEnd         = "roundEnd"
	MsgGameOver         = "gameOver"
	MsgEliminated       = "eliminated"
	MsgPlayAgainSuccess = "playAgainSuccess"
	MsgError            = "error"
)

// ClientMessage is the union of all client -> server messages.
type ClientMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Code      string `json:"code,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Suit      string `json:"suit,omitempty"`
	Card      string `json:"card,omitempty"`
}

// ServerMessage is the union of all server -> client messages. Every
// state-mutating event carries a full State snapshot so clients can stay
// view-stateless.
type ServerMessage struct {
	Type        string             `json:"type"`
	Code        string             `json:"code,omitempty"`
	SessionID   string             `json:"sessionId,omitempty"`
	State       *GameStateSnapshot `json:"state,omitempty"`
	Player      string             `json:"player,omitempty"`
	Card        string             `json:"card,omitempty"`
	NextPlayer  string             `json:"nextPlayer,omitempty"`
	Winner      string             `json:"winner,omitempty"`
	Chooser     string             `json:"chooser,omitempty"`
	TrumpCaller string             `json:"trumpCaller,omitempty"`
	Message     string             `json:"message,omitempty"`
	IsAI        bool               `json:"isAI,omitempty"`
	IsSpectator *bool              `json:"isSpectator,omitempty"`
}

// PlaySnapshot is one play in the current trick: [player name, card].
type PlaySnapshot [2]string

// PlayerSnapshot is the public view of an active player.
type PlayerSnapshot struct {
	Name       string `json:"name"`
	TrickCount int    `json:"trickCount"`
	IsAI       bool   `json:"isAI"`
}

// GameStateSnapshot is the authoritative room state broadcast to clients.
// Hand is filled only on messages addressed to a single active player.
type GameStateSnapshot struct {
	Code          string           `json:"code"`
	CurrentRound  int              `json:"currentRound"`
	TrumpSuit     string           `json:"trumpSuit"`
	CurrentTrick  []PlaySnapshot   `json:"currentTrick"`
	Players       []PlayerSnapshot `json:"players"`
	Spectators    []string         `json:"spectators"`
	State         string           `json:"state"`
	CurrentPlayer *string          `json:"currentPlayer"`
	TrumpCaller   *string          `json:"trumpCaller"`
	Hand          []string         `json:"hand,omitempty"`
}
