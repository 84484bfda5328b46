package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcFindSession, rpcFindSession); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcSessionToken, rpcSessionToken); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcWalletBalance, rpcWalletBalance); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcWalletTransaction, rpcWalletTransaction); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcTransactionHistory, rpcTransactionHistory); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcPlayerStats, rpcPlayerStats); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcLeaderboard, rpcLeaderboard)
}

// callerID resolves the authenticated user id from the RPC context.
func callerID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}
	return userID, nil
}
