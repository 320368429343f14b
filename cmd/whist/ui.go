package main

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/whistlab/knockoutwhist/pkg/server"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("140")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// serverEvent is a message from the server delivered into the UI loop.
type serverEvent server.ServerMessage

// connClosedMsg reports that the websocket went away.
type connClosedMsg struct{ err error }

// screenState represents the current screen in the UI
type screenState int

const (
	stateNameEntry screenState = iota
	stateMenu
	stateCodeEntry
	stateInGame
)

// Model contains all the state for the client UI.
type Model struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	state     screenState
	name      string
	codeInput string

	sessionID   string
	code        string
	game        *server.GameStateSnapshot
	hand        []string
	isSpectator bool
	selected    int

	status string
	errMsg string
	closed bool
}

func newModel(conn *websocket.Conn, session string) *Model {
	m := &Model{conn: conn}
	if session != "" {
		m.sessionID = session
		m.state = stateInGame
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	if m.sessionID != "" {
		return m.send(server.ClientMessage{Type: server.MsgReconnect, SessionID: m.sessionID})
	}
	return nil
}

// send writes one client message on the socket.
func (m *Model) send(msg server.ClientMessage) tea.Cmd {
	return func() tea.Msg {
		m.writeMu.Lock()
		defer m.writeMu.Unlock()
		if err := m.conn.WriteJSON(msg); err != nil {
			return connClosedMsg{err: err}
		}
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connClosedMsg:
		m.closed = true
		m.errMsg = "connection closed"
		return m, nil
	case serverEvent:
		return m.updateFromServer(server.ServerMessage(msg))
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateFromServer(msg server.ServerMessage) (tea.Model, tea.Cmd) {
	if msg.State != nil {
		m.game = msg.State
		if msg.State.Hand != nil {
			m.hand = msg.State.Hand
			if m.selected >= len(m.hand) {
				m.selected = 0
			}
		}
	}

	switch msg.Type {
	case server.MsgGameCreated:
		m.code = msg.Code
		m.sessionID = msg.SessionID
		m.state = stateInGame
		m.status = fmt.Sprintf("Room %s created. Session: %s", msg.Code, msg.SessionID)
	case server.MsgJoined:
		m.sessionID = msg.SessionID
		m.state = stateInGame
		m.status = "Joined game"
	case server.MsgGameState:
		if msg.IsSpectator != nil {
			m.isSpectator = *msg.IsSpectator
		}
		m.state = stateInGame
	case server.MsgPlayerJoined:
		m.status = fmt.Sprintf("%s joined", msg.Player)
	case server.MsgTrumpSelection:
		m.status = fmt.Sprintf("%s is choosing trumps", msg.Chooser)
	case server.MsgRoundStart:
		m.status = "Round started"
	case server.MsgCardPlayed:
		m.status = fmt.Sprintf("%s played %s", msg.Player, msg.Card)
	case server.MsgTrickWinner:
		m.status = fmt.Sprintf("%s takes the trick", msg.Winner)
	case server.MsgRoundEnd:
		m.status = fmt.Sprintf("Round over; %s calls next trumps", msg.TrumpCaller)
	case server.MsgGameOver:
		m.status = fmt.Sprintf("Game over! %s wins", msg.Winner)
	case server.MsgEliminated:
		m.isSpectator = true
		m.status = "You were knocked out"
	case server.MsgPlayAgainSuccess:
		m.isSpectator = false
		m.status = "New game ready"
	case server.MsgError:
		m.errMsg = msg.Message
		return m, nil
	}

	m.errMsg = ""
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.state {
	case stateNameEntry:
		return m.updateTextEntry(msg, &m.name, func() { m.state = stateMenu })
	case stateCodeEntry:
		return m.updateTextEntry(msg, &m.codeInput, func() {})
	case stateMenu:
		switch msg.String() {
		case "c":
			return m, m.send(server.ClientMessage{Type: server.MsgCreate, Name: m.name})
		case "j":
			m.state = stateCodeEntry
			return m, nil
		case "q":
			return m, tea.Quit
		}
	case stateInGame:
		return m.updateGameKey(msg)
	}
	return m, nil
}

func (m *Model) updateTextEntry(msg tea.KeyMsg, field *string, done func()) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if *field == "" {
			return m, nil
		}
		if m.state == stateCodeEntry {
			return m, m.send(server.ClientMessage{
				Type: server.MsgJoin,
				Name: m.name,
				Code: strings.ToUpper(m.codeInput),
			})
		}
		done()
	case tea.KeyBackspace:
		if len(*field) > 0 {
			*field = (*field)[:len(*field)-1]
		}
	case tea.KeyRunes:
		*field += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) updateGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.game == nil {
		return m, nil
	}

	switch m.game.State {
	case string(server.PhaseWaiting):
		switch msg.String() {
		case "a":
			return m, m.send(server.ClientMessage{Type: server.MsgAddAI})
		case "s":
			return m, m.send(server.ClientMessage{Type: server.MsgStartGame})
		}
	case string(server.PhaseCallingTrumps):
		if suit, ok := suitKeys[msg.String()]; ok {
			return m, m.send(server.ClientMessage{Type: server.MsgCallTrumps, Suit: suit})
		}
	case string(server.PhasePlaying):
		switch msg.String() {
		case "left":
			if m.selected > 0 {
				m.selected--
			}
		case "right":
			if m.selected < len(m.hand)-1 {
				m.selected++
			}
		case "enter":
			if m.selected < len(m.hand) {
				return m, m.send(server.ClientMessage{
					Type: server.MsgPlayCard,
					Card: m.hand[m.selected],
				})
			}
		}
	case string(server.PhaseFinished):
		if msg.String() == "p" {
			return m, m.send(server.ClientMessage{Type: server.MsgPlayAgain})
		}
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}
	return m, nil
}

var suitKeys = map[string]string{"s": "♠", "h": "♥", "d": "♦", "c": "♣"}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Knockout Whist"))
	b.WriteString("\n")

	switch m.state {
	case stateNameEntry:
		b.WriteString(fmt.Sprintf("\nYour name: %s_\n", m.name))
	case stateMenu:
		b.WriteString(infoStyle.Render(fmt.Sprintf("Hello %s", m.name)))
		b.WriteString(helpStyle.Render("\n[c] create game  [j] join game  [q] quit"))
	case stateCodeEntry:
		b.WriteString(fmt.Sprintf("\nGame code: %s_\n", strings.ToUpper(m.codeInput)))
	case stateInGame:
		b.WriteString(m.gameView())
	}

	if m.status != "" {
		b.WriteString(infoStyle.Render("\n" + m.status))
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("\n" + m.errMsg))
	}
	return b.String()
}

func (m *Model) gameView() string {
	if m.game == nil {
		return dimStyle.Render("\nWaiting for game state...")
	}
	g := m.game

	var b strings.Builder
	trump := g.TrumpSuit
	if trump == "" {
		trump = "-"
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Room %s   Round %d   Trumps %s   Phase %s", g.Code, g.CurrentRound, trump, g.State)))
	b.WriteString("\n\n")

	for _, p := range g.Players {
		line := fmt.Sprintf("  %s  (%d tricks)", p.Name, p.TrickCount)
		if p.IsAI {
			line += dimStyle.Render("  [AI]")
		}
		if g.CurrentPlayer != nil && *g.CurrentPlayer == p.Name {
			line = selectedStyle.Render(line + "  <- to play")
		}
		b.WriteString(line + "\n")
	}
	if len(g.Spectators) > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  spectating: %s\n", strings.Join(g.Spectators, ", "))))
	}

	if len(g.CurrentTrick) > 0 {
		b.WriteString("\nOn the table:\n")
		for _, play := range g.CurrentTrick {
			b.WriteString(fmt.Sprintf("  %s: %s\n", play[0], play[1]))
		}
	}

	if len(m.hand) > 0 && !m.isSpectator {
		b.WriteString("\nYour hand:\n  ")
		for i, card := range m.hand {
			if i == m.selected && g.State == string(server.PhasePlaying) {
				b.WriteString(selectedStyle.Render("[" + card + "]"))
			} else {
				b.WriteString(" " + card + " ")
			}
		}
		b.WriteString("\n")
	}

	switch g.State {
	case string(server.PhaseWaiting):
		b.WriteString(helpStyle.Render("\n[a] add AI  [s] start game  [q] quit"))
	case string(server.PhaseCallingTrumps):
		b.WriteString(helpStyle.Render("\n[s/h/d/c] call trumps  [q] quit"))
	case string(server.PhasePlaying):
		b.WriteString(helpStyle.Render("\n[←/→] select card  [enter] play  [q] quit"))
	case string(server.PhaseFinished):
		b.WriteString(helpStyle.Render("\n[p] play again  [q] quit"))
	}
	return b.String()
}
