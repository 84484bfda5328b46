package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	walletCurrencyMain  = "main"
	walletCurrencyBonus = "bonus"
)

// NakamaWalletAdapter implements ports.WalletPort using Nakama's wallet system.
type NakamaWalletAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaWalletAdapter creates a new wallet adapter.
func NewNakamaWalletAdapter(nk runtime.NakamaModule) *NakamaWalletAdapter {
	return &NakamaWalletAdapter{nk: nk}
}

// GetBalance retrieves the current main/bonus balance for a user.
func (a *NakamaWalletAdapter) GetBalance(ctx context.Context, userID string) (domain.Balance, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to get account: %w", err)
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.Wallet), &wallet); err != nil {
		return domain.Balance{}, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return domain.Balance{
		Main:  wallet[walletCurrencyMain],
		Bonus: wallet[walletCurrencyBonus],
	}, nil
}

// ApplyUpdate applies a signed delta to the main balance.
func (a *NakamaWalletAdapter) ApplyUpdate(ctx context.Context, userID string, delta int64, metadata map[string]interface{}) (domain.Balance, error) {
	changes := map[string]int64{
		walletCurrencyMain: delta,
	}

	updated, _, err := a.nk.WalletUpdate(ctx, userID, changes, metadata, true)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to update wallet for user %s: %w", userID, err)
	}

	return domain.Balance{
		Main:  updated[walletCurrencyMain],
		Bonus: updated[walletCurrencyBonus],
	}, nil
}

var _ ports.WalletPort = (*NakamaWalletAdapter)(nil)
