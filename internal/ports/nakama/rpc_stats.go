package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bingo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// PlayerStatsResponse carries the caller's lifetime game stats.
type PlayerStatsResponse struct {
	Stats domain.Stats `json:"stats"`
}

func rpcPlayerStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	stats, err := NewNakamaStatsAdapter(nk).Read(ctx, userID)
	if err != nil {
		logger.Error("rpcPlayerStats [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to read stats", 13) // INTERNAL
	}

	b, _ := json.Marshal(PlayerStatsResponse{Stats: stats})
	return string(b), nil
}
