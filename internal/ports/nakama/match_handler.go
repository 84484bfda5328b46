package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"bingo/internal/app"
	"bingo/internal/config"
	"bingo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seat in the match label

	// emptyMatchGraceTicks is how long an abandoned match lingers before it
	// terminates, forfeiting any unfinished session.
	emptyMatchGraceTicks int64 = 300
)

// winNotifier is the slice of runtime.NakamaModule the claim path needs.
type winNotifier interface {
	NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error
}

// matchLabel is the JSON label used for match listing queries.
type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
	Owner string `json:"owner"`
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	OwnerID           string                      `json:"owner_id"` // User ID the single seat belongs to
	Tick              int64                       `json:"tick"`
	NextDrawTick      int64                       `json:"next_draw_tick"`
	DrawIntervalTicks int64                       `json:"draw_interval_ticks"`
	EmptySinceTick    int64                       `json:"empty_since_tick"` // Tick when the last presence left, 0 while occupied
	Presences         map[string]runtime.Presence `json:"-"`
	App               *app.Service                `json:"-"` // Bingo app service with session logic
	Session           *domain.Session             `json:"-"` // Current session (nil when idle)
	Notifier          winNotifier                 `json:"-"`
}

// ownerConnected reports whether the seat owner currently has a live presence.
func (ms *MatchState) ownerConnected() bool {
	if ms.OwnerID == "" {
		return false
	}
	_, ok := ms.Presences[ms.OwnerID]
	return ok
}

func (ms *MatchState) openSeats() int {
	if ms.OwnerID == "" {
		return 1
	}
	return 0
}

func (ms *MatchState) phase() string {
	if ms.Session == nil {
		return string(domain.StateIdle)
	}
	return string(ms.Session.State)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing session match handler.")

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	ledger := app.NewLedger(NewNakamaWalletAdapter(nk), NewNakamaTransactionLogAdapter(nk))
	service := app.NewService(
		ledger,
		NewNakamaStatsAdapter(nk),
		NewNakamaLeaderboardAdapter(nk, LeaderboardTotalWinnings),
		nil,
	)

	state := &MatchState{
		Presences:         make(map[string]runtime.Presence),
		App:               service,
		DrawIntervalTicks: int64(config.GetDrawIntervalSeconds()),
		Notifier:          nk,
	}

	// The creating RPC passes the owner so the seat is reserved before join.
	if owner, ok := params["owner"].(string); ok {
		state.OwnerID = owner
	}

	tickRate := 1 // 1 tick per second, draws are scheduled in whole ticks
	return state, tickRate, mh.labelString(state, logger)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Single seat: the first user claims it, everyone else is the owner
	// reconnecting or rejected.
	if matchState.OwnerID != "" && matchState.OwnerID != presence.GetUserId() {
		return matchState, false, "session belongs to another player"
	}

	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		if matchState.OwnerID == "" {
			matchState.OwnerID = p.GetUserId()
		}
		matchState.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin: User %s joined their session match.", p.GetUserId())
	}
	matchState.EmptySinceTick = 0

	// A reconnect during an active session resumes the call cadence from now
	// rather than firing a burst of missed draws.
	if matchState.Session != nil && matchState.Session.State == domain.StateActive {
		matchState.NextDrawTick = tick + matchState.DrawIntervalTicks
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.sendSnapshot(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave suspends the session; the stake stays committed so the owner can
// reconnect and resume.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		if matchState.Session == nil {
			logger.Info("MatchLeave: Terminating empty idle match.")
			return nil
		}
		matchState.EmptySinceTick = tick
	}

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg.GetOpCode(), msg.GetUserId(), msg.GetData())
	}

	mh.processDraw(matchState, dispatcher, logger)

	// Abandoned match: forfeit the session after the grace period.
	if len(matchState.Presences) == 0 && matchState.EmptySinceTick > 0 &&
		tick-matchState.EmptySinceTick >= emptyMatchGraceTicks {
		if matchState.Session != nil {
			if _, err := matchState.App.Cancel(matchState.Session); err == nil {
				logger.Info("MatchLoop: Abandoned session %s forfeited.", matchState.OwnerID)
			}
			matchState.Session = nil
		}
		return nil
	}

	return matchState
}

// handleMessage routes a single client message by opcode.
func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, senderID string, data []byte) {
	if senderID != state.OwnerID {
		logger.Warn("handleMessage: User %s sent opcode %d into a session they do not own.", senderID, opCode)
		mh.sendError(state, dispatcher, logger, senderID, 403, "not your session")
		return
	}

	switch opCode {
	case OpStartSession:
		mh.handleStartSession(ctx, state, dispatcher, logger, senderID, data)
	case OpToggleMark:
		mh.handleToggleMark(state, dispatcher, logger, senderID, data)
	case OpSetAutoMark:
		mh.handleSetAutoMark(state, dispatcher, logger, senderID, data)
	case OpClaimBingo:
		mh.handleClaimBingo(ctx, state, dispatcher, logger, senderID)
	case OpCancelSession:
		mh.handleCancelSession(state, dispatcher, logger, senderID)
	default:
		logger.Warn("handleMessage: Unknown opcode received: %d", opCode)
	}
}

// processDraw advances the call sequence when one is due. Draws are suspended
// while the session is not active or the owner is disconnected.
func (mh *matchHandler) processDraw(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Session == nil || state.Session.State != domain.StateActive {
		return
	}
	if !state.ownerConnected() {
		return
	}
	if state.Tick < state.NextDrawTick {
		return
	}

	events, err := state.App.DrawTick(state.Session)
	if err != nil {
		logger.Error("processDraw: Draw failed: %v", err)
		return
	}
	state.NextDrawTick = state.Tick + state.DrawIntervalTicks

	mh.broadcastEvents(state, dispatcher, logger, events)
	if state.Session.State == domain.StateWon {
		mh.updateLabel(state, dispatcher, logger)
	}
}

type startSessionRequest struct {
	Stake     int64 `json:"stake"`
	CardCount int   `json:"card_count"`
	AutoMark  bool  `json:"auto_mark"`
}

func (mh *matchHandler) handleStartSession(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Session != nil {
		mh.sendError(state, dispatcher, logger, senderID, 409, "session already in progress")
		return
	}

	var request startSessionRequest
	if err := json.Unmarshal(data, &request); err != nil {
		logger.Warn("handleStartSession: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid request")
		return
	}
	if request.CardCount == 0 {
		request.CardCount = 1
	}
	if !config.IsAllowedStake(request.Stake) {
		mh.sendError(state, dispatcher, logger, senderID, 400, "stake not offered")
		return
	}

	session, err := state.App.StartSession(ctx, senderID, request.Stake, request.CardCount, request.AutoMark, config.GetMaxCardsPerSession())
	if err != nil {
		logger.Warn("handleStartSession: User %s failed to start: %v", senderID, err)
		code := 400
		if errors.Is(err, app.ErrInsufficientFunds) {
			code = 402
		}
		mh.sendError(state, dispatcher, logger, senderID, code, err.Error())
		return
	}

	events, err := state.App.Deal(session)
	if err != nil {
		// The stake is already committed; surfacing the error is all we can do.
		logger.Error("handleStartSession: Deal failed for %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 500, err.Error())
		return
	}

	state.Session = session
	state.NextDrawTick = state.Tick + state.DrawIntervalTicks

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastEvents(state, dispatcher, logger, events)

	logger.Info("handleStartSession: Session %s started for %s (stake=%d, cards=%d).", session.ID, senderID, request.Stake, request.CardCount)
}

type toggleMarkRequest struct {
	CardID int `json:"card_id"`
	Number int `json:"number"`
}

func (mh *matchHandler) handleToggleMark(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Session == nil {
		mh.sendError(state, dispatcher, logger, senderID, 404, "no session in progress")
		return
	}

	var request toggleMarkRequest
	if err := json.Unmarshal(data, &request); err != nil {
		logger.Warn("handleToggleMark: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid request")
		return
	}

	events, err := state.App.ManualMark(state.Session, request.CardID, request.Number)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.broadcastEvents(state, dispatcher, logger, events)
	if state.Session.State == domain.StateWon {
		mh.updateLabel(state, dispatcher, logger)
	}
}

type setAutoMarkRequest struct {
	Enabled bool `json:"enabled"`
}

func (mh *matchHandler) handleSetAutoMark(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Session == nil {
		mh.sendError(state, dispatcher, logger, senderID, 404, "no session in progress")
		return
	}

	var request setAutoMarkRequest
	if err := json.Unmarshal(data, &request); err != nil {
		logger.Warn("handleSetAutoMark: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid request")
		return
	}

	state.Session.AutoMark = request.Enabled
	mh.sendSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleClaimBingo(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	if state.Session == nil {
		mh.sendError(state, dispatcher, logger, senderID, 404, "no session in progress")
		return
	}

	username := senderID
	if p, ok := state.Presences[senderID]; ok {
		username = p.GetUsername()
	}

	result, events, err := state.App.Claim(ctx, state.Session, senderID, username, config.GetPayoutMultiplier())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	if result.StatsErr != nil {
		logger.Warn("handleClaimBingo: Failed to record stats for %s: %v", senderID, result.StatsErr)
	}
	if result.LeaderboardErr != nil {
		logger.Warn("handleClaimBingo: Failed to submit leaderboard score for %s: %v", senderID, result.LeaderboardErr)
	}

	mh.broadcastEvents(state, dispatcher, logger, events)

	if state.Notifier != nil {
		content := map[string]interface{}{
			"session_id": state.Session.ID,
			"payout":     result.Payout,
		}
		if err := state.Notifier.NotificationSend(ctx, senderID, "Bingo!", content, 1, "", true); err != nil {
			logger.Warn("handleClaimBingo: Failed to send win notification to %s: %v", senderID, err)
		}
	}

	endEvents, err := state.App.Finalize(state.Session)
	if err != nil {
		logger.Error("handleClaimBingo: Finalize failed: %v", err)
	} else {
		mh.broadcastEvents(state, dispatcher, logger, endEvents)
	}
	state.Session = nil

	mh.updateLabel(state, dispatcher, logger)

	logger.Info("handleClaimBingo: User %s settled for %d.", senderID, result.Payout)
}

// handleCancelSession abandons the session. The stake is forfeited.
func (mh *matchHandler) handleCancelSession(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	if state.Session == nil {
		mh.sendError(state, dispatcher, logger, senderID, 404, "no session in progress")
		return
	}

	events, err := state.App.Cancel(state.Session)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	state.Session = nil

	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

// broadcastEvents converts app events to wire messages and dispatches them.
func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, bytes, err := eventToMessage(ev)
		if err != nil {
			logger.Error("broadcastEvents: %v", err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			// Targeted recipients who are offline must not cause a broadcast.
			if len(recipients) == 0 {
				continue
			}
		}

		dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
	}
}

// sendSnapshot sends the full session state to the seat owner.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	bytes, err := json.Marshal(toSessionSnapshot(state.Session))
	if err != nil {
		logger.Error("sendSnapshot: Failed to marshal snapshot: %v", err)
		return
	}

	var recipients []runtime.Presence
	if p, ok := state.Presences[state.OwnerID]; ok {
		recipients = []runtime.Presence{p}
	}
	dispatcher.BroadcastMessage(OpSessionState, bytes, recipients, nil, true)
}

// sendError sends a sessionErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(sessionErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("sendError: Failed to marshal error event: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpSessionError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) labelString(state *MatchState, logger runtime.Logger) string {
	label := matchLabel{
		Open:  state.openSeats(),
		Game:  "bingo",
		Phase: state.phase(),
		Owner: state.OwnerID,
	}
	bytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("labelString: Failed to marshal label: %v", err)
		return ""
	}
	return string(bytes)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(mh.labelString(state, logger)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
