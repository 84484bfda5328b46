package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestSession(t *testing.T, cardCount int) *Session {
	t.Helper()
	rng := rand.New(rand.NewSource(21))
	s := &Session{
		ID:        "GAME_test",
		Stake:     50,
		CardCount: cardCount,
		Draw:      NewDrawSequencer(rng),
		State:     StateActive,
	}
	for i := 0; i < cardCount; i++ {
		s.Cards = append(s.Cards, NewCard(i+1, rng))
	}
	return s
}

func TestToggleMarkRoundTrip(t *testing.T) {
	s := newTestSession(t, 1)
	number := s.Cards[0].Layout[0]

	change, err := s.ToggleMark(1, number)
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if !change.Marked {
		t.Fatal("first toggle should mark the number")
	}
	if !s.Cards[0].Marked[number] {
		t.Fatal("number not recorded as marked")
	}

	change, err = s.ToggleMark(1, number)
	if err != nil {
		t.Fatalf("second toggle error: %v", err)
	}
	if change.Marked {
		t.Fatal("second toggle should unmark the number")
	}
	if len(s.Cards[0].Marked) != 0 {
		t.Fatalf("marked set length = %d after round trip, want 0", len(s.Cards[0].Marked))
	}
}

func TestToggleMarkErrors(t *testing.T) {
	s := newTestSession(t, 1)

	if _, err := s.ToggleMark(99, 1); !errors.Is(err, ErrUnknownCard) {
		t.Fatalf("unknown card error = %v, want ErrUnknownCard", err)
	}
	if _, err := s.ToggleMark(1, 76); !errors.Is(err, ErrNumberNotOnCard) {
		t.Fatalf("off-card number error = %v, want ErrNumberNotOnCard", err)
	}
}

func TestToggleMarkAllowsUncalledNumbers(t *testing.T) {
	s := newTestSession(t, 1)

	// Nothing has been called yet; pre-marking is allowed by design.
	if _, err := s.ToggleMark(1, s.Cards[0].Layout[10]); err != nil {
		t.Fatalf("pre-mark error: %v", err)
	}
}

func TestAutoMarkNumberMarksEveryEligibleCard(t *testing.T) {
	s := newTestSession(t, 2)
	number := 17 // full-pool layouts contain every number

	changes := s.AutoMarkNumber(number)
	if len(changes) != 2 {
		t.Fatalf("auto-mark changes = %d, want 2", len(changes))
	}
	for _, c := range s.Cards {
		if !c.Marked[number] {
			t.Fatalf("card %d missing auto-marked number %d", c.ID, number)
		}
	}

	// Already-marked cards must not produce further changes.
	if changes := s.AutoMarkNumber(number); len(changes) != 0 {
		t.Fatalf("repeat auto-mark changes = %d, want 0", len(changes))
	}
}
