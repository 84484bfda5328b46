package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// FindSessionResponse is the payload returned to clients locating their session match.
type FindSessionResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// rpcFindSession returns the caller's session match, creating one when none
// exists. Each player has at most one: the label carries the owner id and the
// single seat is reserved at creation.
func rpcFindSession(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("+label.game:bingo +label.owner:%s", userID)

	limit := 1
	authoritative := true
	minSize := 0
	maxSize := 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcFindSession [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("failed to find session", 13) // INTERNAL
	}

	if len(matches) > 0 {
		resp := FindSessionResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		logger.Info("rpcFindSession [User:%s]: Found existing match %s", userID, resp.MatchID)
		return string(b), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameBingo, map[string]interface{}{"owner": userID})
	if err != nil {
		logger.Error("rpcFindSession [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("failed to create session", 13) // INTERNAL
	}

	resp := FindSessionResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	logger.Info("rpcFindSession [User:%s]: Created new match %s", userID, matchID)
	return string(b), nil
}
