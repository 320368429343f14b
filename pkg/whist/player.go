package whist

import "sort"

// Player represents a participant holding cards, either human or AI. The
// socket for a human lives in the server's registry keyed by SessionID, not
// here.
type Player struct {
	Name      string
	Hand      []Card
	TricksWon int
	IsAI      bool
	SessionID string // empty for AI players
}

// NewHumanPlayer creates a human participant bound to a session.
func NewHumanPlayer(name, sessionID string) *Player {
	return &Player{Name: name, SessionID: sessionID}
}

// NewAIPlayer creates an AI participant.
func NewAIPlayer(name string) *Player {
	return &Player{Name: name, IsAI: true}
}

// displayOrder positions suits for hand sorting. Presentation only; play
// logic never depends on it.
var displayOrder = map[Suit]int{Diamonds: 0, Clubs: 1, Hearts: 2, Spades: 3}

// SortHand orders the hand by suit (♦ ♣ ♥ ♠) then ascending rank.
func (p *Player) SortHand() {
	sort.SliceStable(p.Hand, func(i, j int) bool {
		a, b := p.Hand[i], p.Hand[j]
		if a.suit != b.suit {
			return displayOrder[a.suit] < displayOrder[b.suit]
		}
		return a.rank < b.rank
	})
}

// HasSuit reports whether the hand holds any card of the given suit.
func (p *Player) HasSuit(s Suit) bool {
	for _, c := range p.Hand {
		if c.suit == s {
			return true
		}
	}
	return false
}

// HasCard reports whether the hand holds a card of the given suit and rank.
func (p *Player) HasCard(card Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// RemoveCard removes one instance matching the given card. With a
// multi-deck shoe the hand may hold duplicates; exactly one leaves.
func (p *Player) RemoveCard(card Card) bool {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HandStrings returns the wire form of every card in hand.
func (p *Player) HandStrings() []string {
	out := make([]string, len(p.Hand))
	for i, c := range p.Hand {
		out[i] = c.String()
	}
	return out
}
