package domain

import "errors"

var (
	// ErrUnknownCard is returned when the card id is not part of the session.
	ErrUnknownCard = errors.New("card not found in session")
	// ErrNumberNotOnCard is returned when the number is not on the card layout.
	ErrNumberNotOnCard = errors.New("number not on card")
)

// MarkChange records a single marked-state mutation on a card.
type MarkChange struct {
	CardID int
	Number int
	Marked bool
}

// ToggleMark flips the marked state of number on the given card. Marking a
// number that has never been called is accepted: players may pre-mark.
func (s *Session) ToggleMark(cardID, number int) (MarkChange, error) {
	card := s.CardByID(cardID)
	if card == nil {
		return MarkChange{}, ErrUnknownCard
	}
	if !card.HasNumber(number) {
		return MarkChange{}, ErrNumberNotOnCard
	}

	if card.Marked[number] {
		delete(card.Marked, number)
		return MarkChange{CardID: cardID, Number: number, Marked: false}, nil
	}
	card.Marked[number] = true
	return MarkChange{CardID: cardID, Number: number, Marked: true}, nil
}

// AutoMarkNumber marks number on every card that contains it and has not
// marked it yet, returning one change per mutated card.
func (s *Session) AutoMarkNumber(number int) []MarkChange {
	var changes []MarkChange
	for _, card := range s.Cards {
		if card.HasNumber(number) && !card.Marked[number] {
			card.Marked[number] = true
			changes = append(changes, MarkChange{CardID: card.ID, Number: number, Marked: true})
		}
	}
	return changes
}
