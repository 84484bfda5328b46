package nakama

const (
	// RpcFindSession is the Nakama RPC id clients call to find or create their session match.
	RpcFindSession = "find_session"

	// RpcSessionToken mints a short-lived bearer token for the web client.
	RpcSessionToken = "session_token"

	// RpcWalletBalance returns the current main/bonus balance.
	RpcWalletBalance = "wallet_balance"

	// RpcWalletTransaction applies a deposit, withdraw or transfer.
	RpcWalletTransaction = "wallet_transaction"

	// RpcTransactionHistory returns the capped recent transaction list.
	RpcTransactionHistory = "transaction_history"

	// RpcPlayerStats returns lifetime game stats for the caller.
	RpcPlayerStats = "player_stats"

	// RpcLeaderboard lists the top total-winnings entries.
	RpcLeaderboard = "leaderboard"

	// MatchNameBingo is the authoritative match handler name registered with Nakama.
	MatchNameBingo = "bingo_session"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartSession  int64 = 1
	OpToggleMark    int64 = 2
	OpSetAutoMark   int64 = 3
	OpClaimBingo    int64 = 4
	OpCancelSession int64 = 5

	// Server -> Client events
	OpSessionState   int64 = 101
	OpCardsDealt     int64 = 102 // sent privately to the session owner
	OpNumberCalled   int64 = 103
	OpMarkChanged    int64 = 104
	OpWinDetected    int64 = 105
	OpSessionSettled int64 = 106
	OpSessionEnded   int64 = 107
	OpSessionError   int64 = 110
)

const (
	// LeaderboardTotalWinnings accumulates settled payouts per player.
	LeaderboardTotalWinnings = "bingo_total_winnings"
)
