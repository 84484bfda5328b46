package ports

import (
	"context"

	"bingo/internal/domain"
)

// StatsPort tracks lifetime game outcomes per player.
type StatsPort interface {
	// Read returns the current stats for a user, zero-valued when absent.
	Read(ctx context.Context, userID string) (domain.Stats, error)

	// RecordWin increments games played, total wins and total winnings for a
	// settled session and returns the updated stats.
	RecordWin(ctx context.Context, userID string, winnings int64) (domain.Stats, error)
}
