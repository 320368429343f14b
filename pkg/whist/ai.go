package whist

// AI decision policy. Pure functions of (hand, trick, trump); nothing here
// mutates game state.

// ChooseTrump picks the strongest suit in the hand: each card is worth 10
// for being of the suit plus its rank. Ties resolve in Suits order.
func ChooseTrump(hand []Card) Suit {
	best := Suits[0]
	bestScore := -1
	for _, suit := range Suits {
		score := 0
		for _, c := range hand {
			if c.suit == suit {
				score += 10 + int(c.rank)
			}
		}
		if score > bestScore {
			best = suit
			bestScore = score
		}
	}
	return best
}

// ChooseCard picks which card to play given the current trick and trump.
func ChooseCard(hand []Card, trick *Trick, trump Suit) Card {
	if trick.Size() == 0 {
		return leadCard(hand, trump)
	}
	return followCard(playableCards(hand, trick), trick, trump)
}

// playableCards returns the legally playable subset: the whole hand when
// leading or void in the led suit, otherwise only led-suit cards.
func playableCards(hand []Card, trick *Trick) []Card {
	led, ok := trick.LedSuit()
	if !ok {
		return hand
	}

	var sameSuit []Card
	for _, c := range hand {
		if c.suit == led {
			sameSuit = append(sameSuit, c)
		}
	}
	if len(sameSuit) > 0 {
		return sameSuit
	}
	return hand
}

// leadCard opens a trick: a high non-trump card if we hold one, otherwise
// our lowest non-trump, otherwise our lowest trump.
func leadCard(hand []Card, trump Suit) Card {
	var nonTrump, high []Card
	for _, c := range hand {
		if c.suit != trump {
			nonTrump = append(nonTrump, c)
			if c.rank >= Queen {
				high = append(high, c)
			}
		}
	}

	if len(high) > 0 {
		return highestCard(high)
	}
	if len(nonTrump) > 0 {
		return lowestCard(nonTrump)
	}
	return lowestCard(hand)
}

// followCard plays into an open trick: the lowest card that would take the
// lead, or the lowest playable card as a discard.
func followCard(playable []Card, trick *Trick, trump Suit) Card {
	winning, _ := trick.WinningCard(trump)

	var beaters []Card
	for _, c := range playable {
		if beats(c, winning, trump) {
			beaters = append(beaters, c)
		}
	}

	if len(beaters) > 0 {
		return lowestCard(beaters)
	}
	return lowestCard(playable)
}

// beats reports whether card a beats card b under the trump suit. Cards of
// unrelated suits cannot beat each other.
func beats(a, b Card, trump Suit) bool {
	if a.suit == trump && b.suit != trump {
		return true
	}
	if b.suit == trump && a.suit != trump {
		return false
	}
	if a.suit != b.suit {
		return false
	}
	return a.rank > b.rank
}

func highestCard(cards []Card) Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.rank > best.rank {
			best = c
		}
	}
	return best
}

func lowestCard(cards []Card) Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.rank < best.rank {
			best = c
		}
	}
	return best
}
