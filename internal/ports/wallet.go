package ports

import (
	"context"

	"bingo/internal/domain"
)

// WalletPort defines the interface for reading and mutating the player balance.
type WalletPort interface {
	// GetBalance retrieves the current main/bonus balance for a user.
	GetBalance(ctx context.Context, userID string) (domain.Balance, error)

	// ApplyUpdate applies a signed delta to the main balance and returns the
	// updated balance. Metadata is attached to the wallet ledger entry.
	ApplyUpdate(ctx context.Context, userID string, delta int64, metadata map[string]interface{}) (domain.Balance, error)
}
