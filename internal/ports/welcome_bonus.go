package ports

import (
	"context"

	"bingo/internal/domain"
)

// WelcomeBonusPort grants the registration balance at most once per user.
type WelcomeBonusPort interface {
	// GrantWelcomeBonusOnce attempts to grant the one-time registration
	// balance (main + bonus). Returns granted=false when already granted.
	GrantWelcomeBonusOnce(ctx context.Context, userID string, amounts domain.Balance, metadata map[string]interface{}) (bool, error)
}
