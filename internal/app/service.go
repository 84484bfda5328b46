package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/google/uuid"
)

var (
	ErrInvalidStake     = errors.New("stake must be positive")
	ErrInvalidCardCount = errors.New("card count out of range")
	ErrNotStaked        = errors.New("session not staked")
	ErrNotActive        = errors.New("session not active")
	ErrNotWon           = errors.New("session not won")
	ErrNotSettled       = errors.New("session not settled")
	ErrMarkingClosed    = errors.New("session not accepting marks")
	ErrSessionOver      = errors.New("session already ended")
)

// Service contains bingo session use-cases operating on domain state. All
// methods mutate exactly one session and return the events the mutation
// produced; callers are expected to run them one at a time per session.
type Service struct {
	ledger      *Ledger
	stats       ports.StatsPort
	leaderboard ports.LeaderboardPort
	rng         *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded default.
func NewService(ledger *Ledger, stats ports.StatsPort, leaderboard ports.LeaderboardPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		ledger:      ledger,
		stats:       stats,
		leaderboard: leaderboard,
		rng:         rng,
	}
}

// Ledger exposes the ledger for wallet operations outside a session.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// StartSession validates the wager, debits the stake and returns a new
// session in the Staked state. On ErrInsufficientFunds no session exists and
// the balance is unchanged.
func (s *Service) StartSession(ctx context.Context, userID string, stake int64, cardCount int, autoMark bool, maxCards int) (*domain.Session, error) {
	if stake <= 0 {
		return nil, ErrInvalidStake
	}
	if cardCount < 1 || cardCount > maxCards {
		return nil, ErrInvalidCardCount
	}

	session := &domain.Session{
		ID:        "GAME_" + uuid.NewString(),
		Stake:     stake,
		CardCount: cardCount,
		AutoMark:  autoMark,
		StartedAt: time.Now().UTC(),
		State:     domain.StateIdle,
	}

	if _, err := s.ledger.DebitStake(ctx, userID, stake, session.ID); err != nil {
		return nil, err
	}

	session.State = domain.StateStaked
	return session, nil
}

// Deal generates the session's cards and starts the call sequence, moving
// Staked -> Dealing -> Active. Generation is unconditional once staking
// succeeded.
func (s *Service) Deal(session *domain.Session) ([]Event, error) {
	if session.State != domain.StateStaked {
		return nil, ErrNotStaked
	}

	session.State = domain.StateDealing
	for i := 0; i < session.CardCount; i++ {
		session.Cards = append(session.Cards, domain.NewCard(i+1, s.rng))
	}
	session.Draw = domain.NewDrawSequencer(s.rng)
	session.State = domain.StateActive

	return []Event{{
		Kind: EventCardsDealt,
		Payload: CardsDealtPayload{
			SessionID: session.ID,
			Stake:     session.Stake,
			Cards:     session.Cards,
		},
	}}, nil
}

// DrawTick advances the call sequence by one number. Pool exhaustion is
// non-fatal: the tick produces nothing and the session stays Active until won
// or cancelled. With auto-mark enabled the drawn number is applied to every
// eligible card before win evaluation.
func (s *Service) DrawTick(session *domain.Session) ([]Event, error) {
	if session.State != domain.StateActive {
		return nil, ErrNotActive
	}

	number, err := session.Draw.DrawNext()
	if err != nil {
		if errors.Is(err, domain.ErrNoNumbersRemaining) {
			return nil, nil
		}
		return nil, err
	}

	events := []Event{{
		Kind: EventNumberCalled,
		Payload: NumberCalledPayload{
			Number:         number,
			RemainingCount: session.Draw.RemainingCount(),
		},
	}}

	if session.AutoMark {
		for _, change := range session.AutoMarkNumber(number) {
			events = append(events, Event{
				Kind: EventMarkChanged,
				Payload: MarkChangedPayload{
					CardID: change.CardID,
					Number: change.Number,
					Marked: change.Marked,
				},
			})
		}
		events = append(events, s.checkWin(session)...)
	}

	return events, nil
}

// ManualMark toggles a mark on behalf of the player. Permitted while Active
// or Won; a toggle that completes a card moves the session to Won.
func (s *Service) ManualMark(session *domain.Session, cardID, number int) ([]Event, error) {
	if session.State != domain.StateActive && session.State != domain.StateWon {
		return nil, ErrMarkingClosed
	}

	change, err := session.ToggleMark(cardID, number)
	if err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventMarkChanged,
		Payload: MarkChangedPayload{
			CardID: change.CardID,
			Number: change.Number,
			Marked: change.Marked,
		},
	}}

	if session.State == domain.StateActive {
		events = append(events, s.checkWin(session)...)
	}

	return events, nil
}

// ClaimResult captures non-fatal outcomes of a settlement.
type ClaimResult struct {
	Payout int64
	Stats  domain.Stats

	// StatsErr/LeaderboardErr are set when the respective store update failed;
	// settlement itself still succeeded.
	StatsErr       error
	LeaderboardErr error
}

// Claim settles a won session: credits stake x multiplier, records stats and
// publishes the winnings to the leaderboard. Moves Won -> Settled.
func (s *Service) Claim(ctx context.Context, session *domain.Session, userID, username string, multiplier int64) (ClaimResult, []Event, error) {
	if session.State != domain.StateWon {
		return ClaimResult{}, nil, ErrNotWon
	}

	payout := session.Stake * multiplier
	if _, err := s.ledger.CreditPayout(ctx, userID, payout, session.ID); err != nil {
		return ClaimResult{}, nil, err
	}

	result := ClaimResult{Payout: payout}
	if s.stats != nil {
		result.Stats, result.StatsErr = s.stats.RecordWin(ctx, userID, payout)
	}
	if s.leaderboard != nil {
		result.LeaderboardErr = s.leaderboard.SubmitScore(ctx, userID, username, payout)
	}

	session.State = domain.StateSettled

	return result, []Event{{
		Kind: EventSessionSettled,
		Payload: SessionSettledPayload{
			SessionID: session.ID,
			Payout:    payout,
		},
	}}, nil
}

// Cancel ends a session before settlement. The stake already debited is not
// refunded. Permitted from Staked, Active and Won.
func (s *Service) Cancel(session *domain.Session) ([]Event, error) {
	switch session.State {
	case domain.StateStaked, domain.StateActive, domain.StateWon:
	default:
		return nil, ErrSessionOver
	}

	sessionID := session.ID
	session.Release()

	return []Event{{
		Kind: EventSessionEnded,
		Payload: SessionEndedPayload{
			SessionID: sessionID,
			Reason:    "cancelled",
		},
	}}, nil
}

// Finalize releases a settled session's resources, moving Settled -> Ended.
func (s *Service) Finalize(session *domain.Session) ([]Event, error) {
	if session.State != domain.StateSettled {
		return nil, ErrNotSettled
	}

	sessionID := session.ID
	session.Release()

	return []Event{{
		Kind: EventSessionEnded,
		Payload: SessionEndedPayload{
			SessionID: sessionID,
			Reason:    "settled",
		},
	}}, nil
}

// checkWin runs win detection after a mark mutation and freezes the session
// on a positive outcome.
func (s *Service) checkWin(session *domain.Session) []Event {
	outcome := domain.EvaluateWin(session)
	if !outcome.Won {
		return nil
	}

	session.State = domain.StateWon
	session.WinningCardID = outcome.WinningCardID

	return []Event{{
		Kind:    EventWinDetected,
		Payload: WinDetectedPayload{CardID: outcome.WinningCardID},
	}}
}
