package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingMethod     = errors.New("payment method is required")
	ErrUnknownKind       = errors.New("unknown transaction kind")
)

// Ledger applies stake and wallet mutations against the player balance and
// records every balance-affecting action in the transaction history.
// Validation happens before any mutation, so no rollback path exists.
type Ledger struct {
	wallet ports.WalletPort
	log    ports.TransactionLogPort
}

// NewLedger constructs a Ledger over the given wallet and transaction log ports.
func NewLedger(wallet ports.WalletPort, log ports.TransactionLogPort) *Ledger {
	return &Ledger{wallet: wallet, log: log}
}

// Balance reads the current balance for a user.
func (l *Ledger) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	return l.wallet.GetBalance(ctx, userID)
}

// DebitStake subtracts the stake from the main balance and appends a
// stake_debit record. Fails with ErrInsufficientFunds, leaving the balance
// untouched, when the stake exceeds the main balance.
func (l *Ledger) DebitStake(ctx context.Context, userID string, amount int64, sessionID string) (domain.Balance, error) {
	if amount <= 0 {
		return domain.Balance{}, ErrInvalidAmount
	}

	balance, err := l.wallet.GetBalance(ctx, userID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to read balance: %w", err)
	}
	if amount > balance.Main {
		return balance, ErrInsufficientFunds
	}

	updated, err := l.wallet.ApplyUpdate(ctx, userID, -amount, map[string]interface{}{
		"reason":     "stake_debit",
		"session_id": sessionID,
	})
	if err != nil {
		return balance, fmt.Errorf("failed to debit stake: %w", err)
	}

	l.append(ctx, userID, domain.Transaction{
		ID:          newTransactionID(),
		Kind:        domain.TransactionStakeDebit,
		Amount:      amount,
		Method:      "game",
		Description: sessionID,
		Status:      domain.TransactionCompleted,
		CreatedAt:   time.Now().UTC(),
	})

	return updated, nil
}

// CreditPayout adds the payout to the main balance and appends a
// payout_credit record.
func (l *Ledger) CreditPayout(ctx context.Context, userID string, amount int64, sessionID string) (domain.Balance, error) {
	if amount <= 0 {
		return domain.Balance{}, ErrInvalidAmount
	}

	updated, err := l.wallet.ApplyUpdate(ctx, userID, amount, map[string]interface{}{
		"reason":     "payout_credit",
		"session_id": sessionID,
	})
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to credit payout: %w", err)
	}

	l.append(ctx, userID, domain.Transaction{
		ID:          newTransactionID(),
		Kind:        domain.TransactionPayoutCredit,
		Amount:      amount,
		Method:      "game",
		Description: sessionID,
		Status:      domain.TransactionCompleted,
		CreatedAt:   time.Now().UTC(),
	})

	return updated, nil
}

// RecordTransaction validates and applies a wallet operation (deposit,
// withdraw or transfer), appending a pending record. Debit kinds fail with
// ErrInsufficientFunds when the amount exceeds the main balance.
func (l *Ledger) RecordTransaction(ctx context.Context, userID string, kind domain.TransactionKind, amount int64, method, description string) (domain.Transaction, domain.Balance, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.Balance{}, ErrInvalidAmount
	}
	if method == "" {
		return domain.Transaction{}, domain.Balance{}, ErrMissingMethod
	}

	var delta int64
	switch kind {
	case domain.TransactionDeposit:
		delta = amount
	case domain.TransactionWithdraw, domain.TransactionTransfer:
		balance, err := l.wallet.GetBalance(ctx, userID)
		if err != nil {
			return domain.Transaction{}, domain.Balance{}, fmt.Errorf("failed to read balance: %w", err)
		}
		if amount > balance.Main {
			return domain.Transaction{}, balance, ErrInsufficientFunds
		}
		delta = -amount
	default:
		return domain.Transaction{}, domain.Balance{}, ErrUnknownKind
	}

	updated, err := l.wallet.ApplyUpdate(ctx, userID, delta, map[string]interface{}{
		"reason": string(kind),
		"method": method,
	})
	if err != nil {
		return domain.Transaction{}, domain.Balance{}, fmt.Errorf("failed to apply %s: %w", kind, err)
	}

	txn := domain.Transaction{
		ID:          newTransactionID(),
		Kind:        kind,
		Amount:      amount,
		Method:      method,
		Description: description,
		Status:      domain.TransactionPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.log.Append(ctx, userID, txn); err != nil {
		return txn, updated, fmt.Errorf("failed to record transaction: %w", err)
	}

	return txn, updated, nil
}

// History returns up to limit transactions, most recent first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return l.log.ReadRecent(ctx, userID, limit)
}

// append is best-effort: history failures must not undo a completed balance
// mutation, so the error is swallowed here and surfaced through the port's
// own logging.
func (l *Ledger) append(ctx context.Context, userID string, txn domain.Transaction) {
	_ = l.log.Append(ctx, userID, txn)
}

func newTransactionID() string {
	return "TXN_" + uuid.NewString()
}
