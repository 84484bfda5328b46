package app

import "bingo/internal/domain"

// EventKind identifies emitted session events for Nakama dispatch.
type EventKind string

const (
	EventCardsDealt     EventKind = "cards_dealt"
	EventNumberCalled   EventKind = "number_called"
	EventMarkChanged    EventKind = "mark_changed"
	EventWinDetected    EventKind = "win_detected"
	EventSessionSettled EventKind = "session_settled"
	EventSessionEnded   EventKind = "session_ended"
)

// Event is a session event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type CardsDealtPayload struct {
	SessionID string
	Stake     int64
	Cards     []*domain.Card
}

type NumberCalledPayload struct {
	Number         int
	RemainingCount int
}

type MarkChangedPayload struct {
	CardID int
	Number int
	Marked bool
}

type WinDetectedPayload struct {
	CardID int
}

type SessionSettledPayload struct {
	SessionID string
	Payout    int64
}

type SessionEndedPayload struct {
	SessionID string
	Reason    string // "settled" or "cancelled"
}
