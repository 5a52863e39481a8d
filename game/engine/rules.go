package engine

// CanBuildOnTableau reports whether card may be placed on a tableau pile whose
// top card is top: same suit, one value lower
func CanBuildOnTableau(card, top Card) bool {
	return card.Suit == top.Suit && card.Value == top.Value-1
}

// CanPlaceOnEmptyTableau reports whether card may start an empty tableau pile
func CanPlaceOnEmptyTableau(card Card) bool {
	return card.IsKing()
}

// CanPlaceOnTableau applies whichever tableau rule fits the pile
func CanPlaceOnTableau(card Card, pile Pile) bool {
	top, ok := pile.Top()
	if !ok {
		return CanPlaceOnEmptyTableau(card)
	}
	return CanBuildOnTableau(card, top)
}

// CanBuildOnFoundation reports whether card may be added to a foundation pile.
// An empty foundation takes an ace; otherwise the card must follow the top card
// in the same suit.
func CanBuildOnFoundation(card Card, pile Pile) bool {
	top, ok := pile.Top()
	if !ok {
		return card.Value == AceValue
	}
	return card.Suit == top.Suit && card.Value == top.Value+1
}
