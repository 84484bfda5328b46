package ports

import (
	"context"

	"bingo/internal/domain"
)

// TransactionLogPort persists the per-user transaction history. The history
// is capped: implementations retain only the most recent entries, evicting
// the oldest beyond the cap.
type TransactionLogPort interface {
	// Append adds a transaction to the front of the history.
	Append(ctx context.Context, userID string, txn domain.Transaction) error

	// ReadRecent returns up to limit transactions, most recent first.
	ReadRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}
