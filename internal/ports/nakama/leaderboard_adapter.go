package nakama

import (
	"context"
	"fmt"

	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaLeaderboardAdapter implements ports.LeaderboardPort on a Nakama
// leaderboard with an increment operator, so each submitted score adds to the
// player's running total.
type NakamaLeaderboardAdapter struct {
	nk runtime.NakamaModule
	id string
}

// NewNakamaLeaderboardAdapter creates a new leaderboard adapter for the given leaderboard id.
func NewNakamaLeaderboardAdapter(nk runtime.NakamaModule, id string) *NakamaLeaderboardAdapter {
	return &NakamaLeaderboardAdapter{nk: nk, id: id}
}

// SubmitScore adds score to the user's leaderboard total.
func (a *NakamaLeaderboardAdapter) SubmitScore(ctx context.Context, userID, username string, score int64) error {
	_, err := a.nk.LeaderboardRecordWrite(ctx, a.id, userID, username, score, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to write leaderboard record: %w", err)
	}
	return nil
}

// TopPlayers returns up to limit entries in rank order.
func (a *NakamaLeaderboardAdapter) TopPlayers(ctx context.Context, limit int) ([]ports.LeaderboardEntry, error) {
	records, _, _, _, err := a.nk.LeaderboardRecordsList(ctx, a.id, nil, limit, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard records: %w", err)
	}

	entries := make([]ports.LeaderboardEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, ports.LeaderboardEntry{
			Rank:     record.Rank,
			UserID:   record.OwnerId,
			Username: record.Username.GetValue(),
			Score:    record.Score,
		})
	}
	return entries, nil
}

var _ ports.LeaderboardPort = (*NakamaLeaderboardAdapter)(nil)
