package nakama

import (
	"encoding/json"
	"fmt"

	"bingo/internal/app"
	"bingo/internal/domain"
)

// Wire representations sent to the web client as JSON payloads.

type wireCard struct {
	ID     int   `json:"id"`
	Layout []int `json:"layout"`
	Marked []int `json:"marked"`
}

type sessionSnapshot struct {
	SessionID      string     `json:"session_id"`
	State          string     `json:"state"`
	Stake          int64      `json:"stake"`
	AutoMark       bool       `json:"auto_mark"`
	Cards          []wireCard `json:"cards"`
	CalledNumbers  []int      `json:"called_numbers"`
	RemainingCount int        `json:"remaining_count"`
	WinningCardID  int        `json:"winning_card_id,omitempty"`
}

type cardsDealtEvent struct {
	SessionID string     `json:"session_id"`
	Stake     int64      `json:"stake"`
	Cards     []wireCard `json:"cards"`
}

type numberCalledEvent struct {
	Number         int `json:"number"`
	RemainingCount int `json:"remaining_count"`
}

type markChangedEvent struct {
	CardID int  `json:"card_id"`
	Number int  `json:"number"`
	Marked bool `json:"marked"`
}

type winDetectedEvent struct {
	CardID int `json:"card_id"`
}

type sessionSettledEvent struct {
	SessionID string `json:"session_id"`
	Payout    int64  `json:"payout"`
}

type sessionEndedEvent struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

type sessionErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toWireCard(card *domain.Card) wireCard {
	return wireCard{
		ID:     card.ID,
		Layout: append([]int(nil), card.Layout...),
		Marked: card.MarkedNumbers(),
	}
}

func toWireCards(cards []*domain.Card) []wireCard {
	out := make([]wireCard, len(cards))
	for i, card := range cards {
		out[i] = toWireCard(card)
	}
	return out
}

// toSessionSnapshot builds the full-state payload sent on join and on demand.
func toSessionSnapshot(session *domain.Session) sessionSnapshot {
	if session == nil {
		return sessionSnapshot{State: string(domain.StateIdle)}
	}
	snapshot := sessionSnapshot{
		SessionID:     session.ID,
		State:         string(session.State),
		Stake:         session.Stake,
		AutoMark:      session.AutoMark,
		Cards:         toWireCards(session.Cards),
		CalledNumbers: session.CalledNumbers(),
		WinningCardID: session.WinningCardID,
	}
	if session.Draw != nil {
		snapshot.RemainingCount = session.Draw.RemainingCount()
	}
	return snapshot
}

// eventToMessage converts an app event to its opcode and JSON wire payload.
func eventToMessage(ev app.Event) (int64, []byte, error) {
	var (
		opCode  int64
		payload interface{}
	)

	switch ev.Kind {
	case app.EventCardsDealt:
		p := ev.Payload.(app.CardsDealtPayload)
		opCode = OpCardsDealt
		payload = cardsDealtEvent{
			SessionID: p.SessionID,
			Stake:     p.Stake,
			Cards:     toWireCards(p.Cards),
		}
	case app.EventNumberCalled:
		p := ev.Payload.(app.NumberCalledPayload)
		opCode = OpNumberCalled
		payload = numberCalledEvent{
			Number:         p.Number,
			RemainingCount: p.RemainingCount,
		}
	case app.EventMarkChanged:
		p := ev.Payload.(app.MarkChangedPayload)
		opCode = OpMarkChanged
		payload = markChangedEvent{
			CardID: p.CardID,
			Number: p.Number,
			Marked: p.Marked,
		}
	case app.EventWinDetected:
		p := ev.Payload.(app.WinDetectedPayload)
		opCode = OpWinDetected
		payload = winDetectedEvent{CardID: p.CardID}
	case app.EventSessionSettled:
		p := ev.Payload.(app.SessionSettledPayload)
		opCode = OpSessionSettled
		payload = sessionSettledEvent{
			SessionID: p.SessionID,
			Payout:    p.Payout,
		}
	case app.EventSessionEnded:
		p := ev.Payload.(app.SessionEndedPayload)
		opCode = OpSessionEnded
		payload = sessionEndedEvent{
			SessionID: p.SessionID,
			Reason:    p.Reason,
		}
	default:
		return 0, nil, fmt.Errorf("unknown event kind: %s", ev.Kind)
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal %s event: %w", ev.Kind, err)
	}
	return opCode, bytes, nil
}
