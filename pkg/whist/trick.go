package whist

import "fmt"

// PlayedCard records one play within a trick.
type PlayedCard struct {
	Player *Player
	Card   Card
}

// Trick is the ordered record of plays within one trick.
type Trick struct {
	plays []PlayedCard
}

// NewTrick creates an empty trick.
func NewTrick() *Trick {
	return &Trick{}
}

// AddPlay appends a play. A participant may contribute at most one card per
// trick.
func (t *Trick) AddPlay(p *Player, card Card) error {
	if t.HasPlayed(p) {
		return fmt.Errorf("%s already played in this trick", p.Name)
	}
	t.plays = append(t.plays, PlayedCard{Player: p, Card: card})
	return nil
}

// Plays returns the plays in order.
func (t *Trick) Plays() []PlayedCard {
	return t.plays
}

// Size returns the number of cards played so far.
func (t *Trick) Size() int {
	return len(t.plays)
}

// HasPlayed reports whether the participant has already played.
func (t *Trick) HasPlayed(p *Player) bool {
	for _, pc := range t.plays {
		if pc.Player == p {
			return true
		}
	}
	return false
}

// LedSuit returns the suit of the first play, if any.
func (t *Trick) LedSuit() (Suit, bool) {
	if len(t.plays) == 0 {
		return "", false
	}
	return t.plays[0].Card.suit, true
}

// IsComplete reports whether every active player has contributed.
func (t *Trick) IsComplete(playerCount int) bool {
	return len(t.plays) == playerCount
}

// trickValue scores a card's power within this trick: any trump beats any
// led-suit card, which beats everything else; rank breaks ties within a
// class. Value-equal cards (possible with a multi-deck shoe) score equal,
// and the strict comparison in DetermineWinner keeps the earlier play.
func (t *Trick) trickValue(card Card, trump Suit) int {
	led, _ := t.LedSuit()
	switch {
	case card.suit == trump:
		return 2000 + int(card.rank)
	case card.suit == led:
		return 1000 + int(card.rank)
	}
	return 0
}

// DetermineWinner returns the player whose card wins the trick under the
// given trump suit, or nil for an empty trick. Among value-tied plays the
// earliest wins.
func (t *Trick) DetermineWinner(trump Suit) *Player {
	if len(t.plays) == 0 {
		return nil
	}

	winner := t.plays[0]
	best := t.trickValue(winner.Card, trump)
	for _, pc := range t.plays[1:] {
		if v := t.trickValue(pc.Card, trump); v > best {
			winner = pc
			best = v
		}
	}
	return winner.Player
}

// WinningCard returns the card currently winning the (possibly partial)
// trick.
func (t *Trick) WinningCard(trump Suit) (Card, bool) {
	if len(t.plays) == 0 {
		return Card{}, false
	}

	winning := t.plays[0].Card
	best := t.trickValue(winning, trump)
	for _, pc := range t.plays[1:] {
		if v := t.trickValue(pc.Card, trump); v > best {
			winning = pc.Card
			best = v
		}
	}
	return winning, true
}
