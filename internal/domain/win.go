package domain

// WinOutcome reports the result of a win evaluation. WinningCardID is 0 when
// no card has won.
type WinOutcome struct {
	Won           bool
	WinningCardID int
}

// EvaluateWin checks every card in session order for full-card coverage: a
// card wins once all of its layout numbers are marked ("blackout"). When
// several cards qualify at once the first in card order wins. The check is a
// pure read and may be repeated without side effects.
func EvaluateWin(s *Session) WinOutcome {
	for _, card := range s.Cards {
		if len(card.Marked) == len(card.Layout) && len(card.Layout) > 0 {
			return WinOutcome{Won: true, WinningCardID: card.ID}
		}
	}
	return WinOutcome{}
}
