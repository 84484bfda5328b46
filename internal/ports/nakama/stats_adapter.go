package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "stats"
	statsKey        = "player_stats_v1"

	statsWriteAttempts = 3
)

// NakamaStatsAdapter stores lifetime game stats as a per-user storage object.
type NakamaStatsAdapter struct {
	storage transactionsStorage
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(storage transactionsStorage) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{storage: storage}
}

// Read returns the current stats, zero-valued when none are stored yet.
func (a *NakamaStatsAdapter) Read(ctx context.Context, userID string) (domain.Stats, error) {
	stats, _, err := a.read(ctx, userID)
	return stats, err
}

// RecordWin increments games played, wins and winnings using the storage
// version for optimistic concurrency.
func (a *NakamaStatsAdapter) RecordWin(ctx context.Context, userID string, winnings int64) (domain.Stats, error) {
	if userID == "" {
		return domain.Stats{}, fmt.Errorf("userID is required")
	}

	for attempt := 0; attempt < statsWriteAttempts; attempt++ {
		stats, version, err := a.read(ctx, userID)
		if err != nil {
			return domain.Stats{}, err
		}

		stats.GamesPlayed++
		stats.TotalWins++
		stats.TotalWinnings += winnings

		value, err := json.Marshal(stats)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("failed to marshal stats: %w", err)
		}

		if version == "" {
			version = "*"
		}
		_, err = a.storage.StorageWrite(ctx, []*runtime.StorageWrite{
			{
				Collection:      statsCollection,
				Key:             statsKey,
				UserID:          userID,
				Value:           string(value),
				Version:         version,
				PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
				PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
			},
		})
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return domain.Stats{}, fmt.Errorf("failed to write stats: %w", err)
		}
	}

	return domain.Stats{}, fmt.Errorf("failed to write stats after %d attempts", statsWriteAttempts)
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (domain.Stats, string, error) {
	objects, err := a.storage.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: statsCollection,
			Key:        statsKey,
			UserID:     userID,
		},
	})
	if err != nil {
		return domain.Stats{}, "", fmt.Errorf("failed to read stats: %w", err)
	}
	if len(objects) == 0 {
		return domain.Stats{}, "", nil
	}

	var stats domain.Stats
	if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
		return domain.Stats{}, "", fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return stats, objects[0].Version, nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
