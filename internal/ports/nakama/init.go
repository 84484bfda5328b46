package nakama

import (
	"context"
	"database/sql"

	"bingo/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: Could not load game config: %v", err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateCustom(AfterAuthenticateCustom); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBingo, NewMatch); err != nil {
		return err
	}

	// The total-winnings leaderboard accumulates every settled payout.
	if err := nk.LeaderboardCreate(ctx, LeaderboardTotalWinnings, true, "desc", "incr", "", nil, true); err != nil {
		logger.Warn("InitModule: Could not create leaderboard: %v", err)
	}

	logger.Info("Bingo Go module loaded.")
	return nil
}
