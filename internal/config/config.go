package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// StakeTier is one of the wager amounts offered on the stake selection screen.
type StakeTier struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type GameConfig struct {
	// PayoutMultiplier is applied to the stake on a winning claim.
	PayoutMultiplier int64 `json:"payout_multiplier"`
	// DrawIntervalSeconds is the fixed period between called numbers.
	DrawIntervalSeconds int `json:"draw_interval_seconds"`
	// MaxCardsPerSession bounds how many cards one session may hold.
	MaxCardsPerSession int         `json:"max_cards_per_session"`
	StakeTiers         []StakeTier `json:"stake_tiers"`
	// WelcomeMainBalance/WelcomeBonusBalance seed new accounts.
	WelcomeMainBalance  int64 `json:"welcome_main_balance"`
	WelcomeBonusBalance int64 `json:"welcome_bonus_balance"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetPayoutMultiplier returns the configured payout multiplier, or the default.
func GetPayoutMultiplier() int64 {
	if cfg == nil || cfg.PayoutMultiplier <= 0 {
		return 10 // Safe default
	}
	return cfg.PayoutMultiplier
}

// GetDrawIntervalSeconds returns the configured draw interval, or the default.
func GetDrawIntervalSeconds() int {
	if cfg == nil || cfg.DrawIntervalSeconds <= 0 {
		return 2
	}
	return cfg.DrawIntervalSeconds
}

// GetMaxCardsPerSession returns the configured card limit, or the default.
func GetMaxCardsPerSession() int {
	if cfg == nil || cfg.MaxCardsPerSession <= 0 {
		return 2
	}
	return cfg.MaxCardsPerSession
}

// IsAllowedStake reports whether amount matches an offered stake tier.
// With no tiers configured, any positive amount is accepted.
func IsAllowedStake(amount int64) bool {
	if amount <= 0 {
		return false
	}
	if cfg == nil || len(cfg.StakeTiers) == 0 {
		return true
	}
	for _, tier := range cfg.StakeTiers {
		if tier.Amount == amount {
			return true
		}
	}
	return false
}

// GetWelcomeBalances returns the main and bonus amounts granted on registration.
func GetWelcomeBalances() (int64, int64) {
	if cfg == nil {
		return 1000, 100
	}
	return cfg.WelcomeMainBalance, cfg.WelcomeBonusBalance
}
