package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	welcomeBonusCollection = "onboarding"
	welcomeBonusKey        = "welcome_bonus_v1"
)

// NakamaWelcomeBonusAdapter grants the registration balance using Nakama
// storage + wallet updates.
type NakamaWelcomeBonusAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaWelcomeBonusAdapter creates a new welcome bonus adapter.
func NewNakamaWelcomeBonusAdapter(nk runtime.NakamaModule) *NakamaWelcomeBonusAdapter {
	return &NakamaWelcomeBonusAdapter{nk: nk}
}

// GrantWelcomeBonusOnce seeds the main and bonus balances and records a
// marker atomically. A marker version conflict means the grant already
// happened, which is reported as granted=false with no error.
func (a *NakamaWelcomeBonusAdapter) GrantWelcomeBonusOnce(ctx context.Context, userID string, amounts domain.Balance, metadata map[string]interface{}) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	if amounts.Main <= 0 && amounts.Bonus <= 0 {
		return false, fmt.Errorf("welcome balance must be positive")
	}

	marker := map[string]interface{}{
		"main":       amounts.Main,
		"bonus":      amounts.Bonus,
		"granted_at": time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(marker)
	if err != nil {
		return false, fmt.Errorf("failed to marshal welcome bonus marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{
		{
			Collection:      welcomeBonusCollection,
			Key:             welcomeBonusKey,
			UserID:          userID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	changeset := map[string]int64{}
	if amounts.Main > 0 {
		changeset[walletCurrencyMain] = amounts.Main
	}
	if amounts.Bonus > 0 {
		changeset[walletCurrencyBonus] = amounts.Bonus
	}
	walletUpdates := []*runtime.WalletUpdate{
		{
			UserID:    userID,
			Changeset: changeset,
			Metadata:  metadata,
		},
	}

	_, _, err = a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant welcome bonus: %w", err)
	}

	return true, nil
}

var _ ports.WelcomeBonusPort = (*NakamaWelcomeBonusAdapter)(nil)
