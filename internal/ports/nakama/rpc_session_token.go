package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bingo/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

const sessionTokenIssuer = "bingo"

// SessionTokenResponse carries the minted bearer token.
type SessionTokenResponse struct {
	Token string `json:"token"`
}

// rpcSessionToken mints a short-lived token the web client presents on its
// HTTP calls. The signing secret comes from the runtime environment.
func rpcSessionToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	username, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)

	secret := ""
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		secret = env["bingo_session_token_secret"]
	}
	if secret == "" {
		logger.Error("rpcSessionToken: bingo_session_token_secret is not configured")
		return "", runtime.NewError("session tokens not configured", 13) // INTERNAL
	}

	token, err := app.NewSessionTokenService(secret, sessionTokenIssuer).GenerateToken(userID, username)
	if err != nil {
		logger.Error("rpcSessionToken [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to generate token", 13) // INTERNAL
	}

	b, _ := json.Marshal(SessionTokenResponse{Token: token})
	return string(b), nil
}
