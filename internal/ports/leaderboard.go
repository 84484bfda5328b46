package ports

import "context"

// LeaderboardEntry is a single ranked row on the winnings leaderboard.
type LeaderboardEntry struct {
	Rank     int64  `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// LeaderboardPort publishes and lists total-winnings rankings.
type LeaderboardPort interface {
	// SubmitScore adds score to the user's leaderboard total.
	SubmitScore(ctx context.Context, userID, username string, score int64) error

	// TopPlayers returns up to limit entries in rank order.
	TopPlayers(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
