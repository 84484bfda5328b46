package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const defaultLeaderboardLimit = 10

// LeaderboardRequest optionally bounds the number of returned entries.
type LeaderboardRequest struct {
	Limit int `json:"limit"`
}

// LeaderboardResponse lists the top total-winnings entries in rank order.
type LeaderboardResponse struct {
	Entries []ports.LeaderboardEntry `json:"entries"`
}

func rpcLeaderboard(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if _, err := callerID(ctx); err != nil {
		return "", err
	}

	limit := defaultLeaderboardLimit
	if payload != "" {
		var request LeaderboardRequest
		if err := json.Unmarshal([]byte(payload), &request); err == nil && request.Limit > 0 && request.Limit <= 100 {
			limit = request.Limit
		}
	}

	entries, err := NewNakamaLeaderboardAdapter(nk, LeaderboardTotalWinnings).TopPlayers(ctx, limit)
	if err != nil {
		logger.Error("rpcLeaderboard: %v", err)
		return "", runtime.NewError("failed to read leaderboard", 13) // INTERNAL
	}
	if entries == nil {
		entries = []ports.LeaderboardEntry{}
	}

	b, _ := json.Marshal(LeaderboardResponse{Entries: entries})
	return string(b), nil
}
