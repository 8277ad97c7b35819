package httpapi

import "github.com/tetrabit/cardcache/internal/card"

// nonNil renders a nil card slice as an empty JSON array instead of null.
func nonNil(cards []card.Card) []card.Card {
	if cards == nil {
		return []card.Card{}
	}
	return cards
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
