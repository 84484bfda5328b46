package domain

import "time"

// Balance is the process-wide player balance, split into the spendable main
// balance and the promotional bonus balance.
type Balance struct {
	Main  int64 `json:"main"`
	Bonus int64 `json:"bonus"`
}

// TransactionKind enumerates balance-affecting actions.
type TransactionKind string

const (
	TransactionDeposit      TransactionKind = "deposit"
	TransactionWithdraw     TransactionKind = "withdraw"
	TransactionTransfer     TransactionKind = "transfer"
	TransactionStakeDebit   TransactionKind = "stake_debit"
	TransactionPayoutCredit TransactionKind = "payout_credit"
)

// TransactionStatus enumerates processing states for a transaction record.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
)

// Transaction is one entry in the append-only, capped transaction history.
type Transaction struct {
	ID          string            `json:"id"`
	Kind        TransactionKind   `json:"kind"`
	Amount      int64             `json:"amount"`
	Method      string            `json:"method,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Stats aggregates a player's lifetime game outcomes.
type Stats struct {
	GamesPlayed   int64 `json:"games_played"`
	TotalWins     int64 `json:"total_wins"`
	TotalWinnings int64 `json:"total_winnings"`
}
