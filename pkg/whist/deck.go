package whist

import "math/rand"

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

// DecksRequired returns how many standard decks are needed to deal handSize
// cards to numPlayers players. A full table at round seven needs more than
// one deck, so duplicate cards are legal.
func DecksRequired(handSize, numPlayers int) int {
	cardsNeeded := handSize * numPlayers
	decks := (cardsNeeded + CardsPerDeck - 1) / CardsPerDeck
	if decks < 1 {
		decks = 1
	}
	return decks
}

// Deck represents a shoe of one or more standard decks.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a shuffled shoe of numDecks standard decks using the
// given random number generator.
func NewDeck(numDecks int, rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, numDecks*CardsPerDeck),
		rng:   rng,
	}

	for i := 0; i < numDecks; i++ {
		for _, suit := range Suits {
			for rank := Rank(2); rank <= Ace; rank++ {
				d.cards = append(d.cards, Card{suit: suit, rank: rank})
			}
		}
	}

	d.Shuffle()
	return d
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}
