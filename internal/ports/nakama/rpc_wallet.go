package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"bingo/internal/app"
	"bingo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

const defaultHistoryLimit = 50

// WalletBalanceResponse carries the current balances.
type WalletBalanceResponse struct {
	Balance domain.Balance `json:"balance"`
}

// WalletTransactionRequest is a client-initiated deposit, withdraw or transfer.
type WalletTransactionRequest struct {
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// WalletTransactionResponse returns the recorded transaction and updated balance.
type WalletTransactionResponse struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     domain.Balance     `json:"balance"`
}

// TransactionHistoryRequest optionally bounds the returned history.
type TransactionHistoryRequest struct {
	Limit int `json:"limit"`
}

// TransactionHistoryResponse lists recent transactions, newest first.
type TransactionHistoryResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

func newLedger(nk runtime.NakamaModule) *app.Ledger {
	return app.NewLedger(NewNakamaWalletAdapter(nk), NewNakamaTransactionLogAdapter(nk))
}

func rpcWalletBalance(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	balance, err := newLedger(nk).Balance(ctx, userID)
	if err != nil {
		logger.Error("rpcWalletBalance [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to read balance", 13) // INTERNAL
	}

	b, _ := json.Marshal(WalletBalanceResponse{Balance: balance})
	return string(b), nil
}

func rpcWalletTransaction(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request WalletTransactionRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
	}

	txn, balance, err := newLedger(nk).RecordTransaction(ctx, userID, domain.TransactionKind(request.Kind), request.Amount, request.Method, request.Description)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrMissingMethod), errors.Is(err, app.ErrUnknownKind):
			return "", runtime.NewError(err.Error(), 3) // INVALID_ARGUMENT
		case errors.Is(err, app.ErrInsufficientFunds):
			return "", runtime.NewError(err.Error(), 9) // FAILED_PRECONDITION
		default:
			logger.Error("rpcWalletTransaction [User:%s]: %v", userID, err)
			return "", runtime.NewError("transaction failed", 13) // INTERNAL
		}
	}

	b, _ := json.Marshal(WalletTransactionResponse{Transaction: txn, Balance: balance})
	return string(b), nil
}

func rpcTransactionHistory(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	limit := defaultHistoryLimit
	if payload != "" {
		var request TransactionHistoryRequest
		if err := json.Unmarshal([]byte(payload), &request); err == nil && request.Limit > 0 && request.Limit < limit {
			limit = request.Limit
		}
	}

	transactions, err := newLedger(nk).History(ctx, userID, limit)
	if err != nil {
		logger.Error("rpcTransactionHistory [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to read history", 13) // INTERNAL
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	b, _ := json.Marshal(TransactionHistoryResponse{Transactions: transactions})
	return string(b), nil
}
