package domain

import (
	"sort"
	"time"
)

// SessionState represents the lifecycle stage of a bingo session.
type SessionState string

const (
	// StateIdle means no session exists yet.
	StateIdle SessionState = "idle"
	// StateStaked means the stake has been validated and debited, before cards exist.
	StateStaked SessionState = "staked"
	// StateDealing means cards are being generated.
	StateDealing SessionState = "dealing"
	// StateActive means cards exist and the draw loop is running.
	StateActive SessionState = "active"
	// StateWon means a card satisfied the win condition; drawing is frozen.
	StateWon SessionState = "won"
	// StateSettled means the payout has been credited.
	StateSettled SessionState = "settled"
	// StateEnded is terminal; all session resources are released.
	StateEnded SessionState = "ended"
)

// Card is a single playing card within a session. Layout is a permutation of
// the full number pool; Marked only ever holds numbers present in Layout.
type Card struct {
	ID     int          `json:"id"`
	Layout []int        `json:"layout"`
	Marked map[int]bool `json:"-"`
}

// HasNumber reports whether n appears on the card layout.
func (c *Card) HasNumber(n int) bool {
	for _, v := range c.Layout {
		if v == n {
			return true
		}
	}
	return false
}

// MarkedNumbers returns the marked set as an ascending-sorted slice.
func (c *Card) MarkedNumbers() []int {
	out := make([]int, 0, len(c.Marked))
	for n := range c.Marked {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Session captures the authoritative state for one complete play, from
// staking to settlement or cancellation.
type Session struct {
	ID        string
	Stake     int64
	CardCount int
	Cards     []*Card
	Draw      *DrawSequencer
	AutoMark  bool
	StartedAt time.Time
	State     SessionState

	// WinningCardID is set once a card satisfies the win condition; 0 otherwise.
	WinningCardID int
}

// CardByID returns the session card with the given id, or nil.
func (s *Session) CardByID(id int) *Card {
	for _, c := range s.Cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CalledNumbers returns the append-only call sequence so far.
func (s *Session) CalledNumbers() []int {
	if s.Draw == nil {
		return nil
	}
	return s.Draw.Called()
}

// Release drops all per-session resources. Called on the transition to Ended.
func (s *Session) Release() {
	s.Cards = nil
	s.Draw = nil
	s.State = StateEnded
}
