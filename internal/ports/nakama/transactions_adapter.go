package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	transactionsCollection = "wallet"
	transactionsKey        = "transactions"

	// transactionHistoryCap bounds the stored history; the oldest entries
	// are evicted once the cap is reached.
	transactionHistoryCap = 50

	transactionsWriteAttempts = 3
)

// transactionsStorage is the slice of runtime.NakamaModule this adapter needs.
type transactionsStorage interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaTransactionLogAdapter persists the per-user transaction history as a
// single storage object, newest entry first, capped at transactionHistoryCap.
type NakamaTransactionLogAdapter struct {
	storage transactionsStorage
}

// NewNakamaTransactionLogAdapter creates a new transaction log adapter.
func NewNakamaTransactionLogAdapter(storage transactionsStorage) *NakamaTransactionLogAdapter {
	return &NakamaTransactionLogAdapter{storage: storage}
}

type transactionHistory struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// Append prepends txn to the stored history, evicting beyond the cap. Writes
// use the storage object version for optimistic concurrency and retry on a
// rejected version.
func (a *NakamaTransactionLogAdapter) Append(ctx context.Context, userID string, txn domain.Transaction) error {
	if userID == "" {
		return fmt.Errorf("userID is required")
	}

	for attempt := 0; attempt < transactionsWriteAttempts; attempt++ {
		history, version, err := a.read(ctx, userID)
		if err != nil {
			return err
		}

		history.Transactions = appendCapped(history.Transactions, txn, transactionHistoryCap)

		value, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction history: %w", err)
		}

		if version == "" {
			version = "*" // first write must not clobber a concurrent one
		}
		_, err = a.storage.StorageWrite(ctx, []*runtime.StorageWrite{
			{
				Collection:      transactionsCollection,
				Key:             transactionsKey,
				UserID:          userID,
				Value:           string(value),
				Version:         version,
				PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
				PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
			},
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return fmt.Errorf("failed to write transaction history: %w", err)
		}
	}

	return fmt.Errorf("failed to write transaction history after %d attempts", transactionsWriteAttempts)
}

// ReadRecent returns up to limit transactions, most recent first.
func (a *NakamaTransactionLogAdapter) ReadRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	history, _, err := a.read(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := history.Transactions
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (a *NakamaTransactionLogAdapter) read(ctx context.Context, userID string) (transactionHistory, string, error) {
	objects, err := a.storage.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: transactionsCollection,
			Key:        transactionsKey,
			UserID:     userID,
		},
	})
	if err != nil {
		return transactionHistory{}, "", fmt.Errorf("failed to read transaction history: %w", err)
	}
	if len(objects) == 0 {
		return transactionHistory{}, "", nil
	}

	var history transactionHistory
	if err := json.Unmarshal([]byte(objects[0].Value), &history); err != nil {
		return transactionHistory{}, "", fmt.Errorf("failed to unmarshal transaction history: %w", err)
	}
	return history, objects[0].Version, nil
}

// appendCapped prepends txn and truncates to limit entries.
func appendCapped(list []domain.Transaction, txn domain.Transaction, limit int) []domain.Transaction {
	list = append([]domain.Transaction{txn}, list...)
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

var _ ports.TransactionLogPort = (*NakamaTransactionLogAdapter)(nil)
