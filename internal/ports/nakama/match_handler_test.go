package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"bingo/internal/app"
	"bingo/internal/domain"
	"bingo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type dispatchedMessage struct {
	opCode int64
	data   []byte
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []dispatchedMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, dispatchedMessage{opCode: opCode, data: append([]byte(nil), data...)})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) countOp(opCode int64) int {
	count := 0
	for _, msg := range md.messages {
		if msg.opCode == opCode {
			count++
		}
	}
	return count
}

func (md *mockDispatcher) lastOp(t *testing.T, opCode int64) []byte {
	t.Helper()
	for i := len(md.messages) - 1; i >= 0; i-- {
		if md.messages[i].opCode == opCode {
			return md.messages[i].data
		}
	}
	t.Fatalf("no message with opcode %d dispatched", opCode)
	return nil
}

// testPresence is a minimal runtime.Presence for exercising join/leave paths.
type testPresence struct {
	userID   string
	username string
}

func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node" }
func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return true }
func (p testPresence) GetUsername() string               { return p.username }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonJoin }

type stubWallet struct {
	balances map[string]domain.Balance
}

func (f *stubWallet) GetBalance(ctx context.Context, userID string) (domain.Balance, error) {
	return f.balances[userID], nil
}

func (f *stubWallet) ApplyUpdate(ctx context.Context, userID string, delta int64, metadata map[string]interface{}) (domain.Balance, error) {
	b := f.balances[userID]
	b.Main += delta
	f.balances[userID] = b
	return b, nil
}

type stubTransactionLog struct {
	entries []domain.Transaction
}

func (f *stubTransactionLog) Append(ctx context.Context, userID string, txn domain.Transaction) error {
	f.entries = append([]domain.Transaction{txn}, f.entries...)
	return nil
}

func (f *stubTransactionLog) ReadRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return f.entries, nil
}

type stubStats struct {
	stats domain.Stats
}

func (f *stubStats) Read(ctx context.Context, userID string) (domain.Stats, error) {
	return f.stats, nil
}

func (f *stubStats) RecordWin(ctx context.Context, userID string, winnings int64) (domain.Stats, error) {
	f.stats.GamesPlayed++
	f.stats.TotalWins++
	f.stats.TotalWinnings += winnings
	return f.stats, nil
}

type stubLeaderboard struct {
	scores map[string]int64
}

func (f *stubLeaderboard) SubmitScore(ctx context.Context, userID, username string, score int64) error {
	if f.scores == nil {
		f.scores = make(map[string]int64)
	}
	f.scores[userID] += score
	return nil
}

func (f *stubLeaderboard) TopPlayers(ctx context.Context, limit int) ([]ports.LeaderboardEntry, error) {
	return nil, nil
}

type matchFixture struct {
	handler    *matchHandler
	state      *MatchState
	dispatcher *mockDispatcher
	wallet     *stubWallet
}

func newMatchFixture(t *testing.T, balance int64) *matchFixture {
	t.Helper()
	wallet := &stubWallet{balances: map[string]domain.Balance{
		"owner-1": {Main: balance},
	}}
	service := app.NewService(
		app.NewLedger(wallet, &stubTransactionLog{}),
		&stubStats{},
		&stubLeaderboard{},
		rand.New(rand.NewSource(42)),
	)

	state := &MatchState{
		OwnerID:           "owner-1",
		Presences:         map[string]runtime.Presence{"owner-1": testPresence{userID: "owner-1", username: "alice"}},
		App:               service,
		DrawIntervalTicks: 2,
	}

	return &matchFixture{
		handler:    &matchHandler{},
		state:      state,
		dispatcher: &mockDispatcher{},
		wallet:     wallet,
	}
}

func (fx *matchFixture) send(t *testing.T, opCode int64, senderID string, payload interface{}) {
	t.Helper()
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	fx.handler.handleMessage(context.Background(), fx.state, fx.dispatcher, noopLogger{}, opCode, senderID, data)
}

func (fx *matchFixture) startSession(t *testing.T, stake int64, cardCount int, autoMark bool) {
	t.Helper()
	fx.send(t, OpStartSession, "owner-1", startSessionRequest{Stake: stake, CardCount: cardCount, AutoMark: autoMark})
	if fx.state.Session == nil {
		t.Fatal("session not started")
	}
}

func TestJoinAttemptSingleSeat(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	handler := fx.handler
	ctx := context.Background()

	_, allowed, _ := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, fx.dispatcher, 1, fx.state, testPresence{userID: "owner-1"}, nil)
	if !allowed {
		t.Fatal("owner rejoin rejected")
	}

	_, allowed, reason := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, fx.dispatcher, 1, fx.state, testPresence{userID: "intruder"}, nil)
	if allowed {
		t.Fatal("second user admitted into a single-seat session")
	}
	if reason == "" {
		t.Fatal("rejection reason missing")
	}
}

func TestStartSessionDealsAndSchedulesDraws(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.state.Tick = 10

	fx.startSession(t, 50, 2, false)

	if fx.state.Session.State != domain.StateActive {
		t.Fatalf("state = %s, want active", fx.state.Session.State)
	}
	if got := fx.wallet.balances["owner-1"].Main; got != 950 {
		t.Fatalf("balance = %d, want 950", got)
	}
	if fx.state.NextDrawTick != 12 {
		t.Fatalf("next draw tick = %d, want 12", fx.state.NextDrawTick)
	}
	if fx.dispatcher.countOp(OpCardsDealt) != 1 {
		t.Fatalf("cards_dealt broadcasts = %d, want 1", fx.dispatcher.countOp(OpCardsDealt))
	}

	var dealt cardsDealtEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpCardsDealt), &dealt); err != nil {
		t.Fatalf("unmarshal cards_dealt: %v", err)
	}
	if len(dealt.Cards) != 2 {
		t.Fatalf("dealt cards = %d, want 2", len(dealt.Cards))
	}
}

func TestStartSessionRejectsWhileInProgress(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)
	before := fx.wallet.balances["owner-1"].Main

	fx.send(t, OpStartSession, "owner-1", startSessionRequest{Stake: 50, CardCount: 1})

	if got := fx.wallet.balances["owner-1"].Main; got != before {
		t.Fatalf("balance changed on rejected start: %d", got)
	}
	if fx.dispatcher.countOp(OpSessionError) != 1 {
		t.Fatalf("session_error broadcasts = %d, want 1", fx.dispatcher.countOp(OpSessionError))
	}
}

func TestNonOwnerMessagesRejected(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.state.Presences["intruder"] = testPresence{userID: "intruder"}

	fx.send(t, OpStartSession, "intruder", startSessionRequest{Stake: 50, CardCount: 1})

	if fx.state.Session != nil {
		t.Fatal("intruder started a session")
	}
	var errEvent sessionErrorEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpSessionError), &errEvent); err != nil {
		t.Fatalf("unmarshal error event: %v", err)
	}
	if errEvent.Code != 403 {
		t.Fatalf("error code = %d, want 403", errEvent.Code)
	}
}

func TestDrawCadenceAndSuspension(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.state.Tick = 0
	fx.startSession(t, 50, 1, false)

	// Not due yet.
	fx.state.Tick = 1
	fx.handler.processDraw(fx.state, fx.dispatcher, noopLogger{})
	if fx.dispatcher.countOp(OpNumberCalled) != 0 {
		t.Fatal("draw fired before the interval elapsed")
	}

	// Due.
	fx.state.Tick = 2
	fx.handler.processDraw(fx.state, fx.dispatcher, noopLogger{})
	if fx.dispatcher.countOp(OpNumberCalled) != 1 {
		t.Fatalf("number_called broadcasts = %d, want 1", fx.dispatcher.countOp(OpNumberCalled))
	}
	if fx.state.NextDrawTick != 4 {
		t.Fatalf("next draw tick = %d, want 4", fx.state.NextDrawTick)
	}

	// Owner disconnects: draws suspend even when due.
	delete(fx.state.Presences, "owner-1")
	fx.state.Tick = 4
	fx.handler.processDraw(fx.state, fx.dispatcher, noopLogger{})
	if fx.dispatcher.countOp(OpNumberCalled) != 1 {
		t.Fatal("draw fired while owner disconnected")
	}

	// Reconnect resumes.
	fx.state.Presences["owner-1"] = testPresence{userID: "owner-1", username: "alice"}
	fx.handler.processDraw(fx.state, fx.dispatcher, noopLogger{})
	if fx.dispatcher.countOp(OpNumberCalled) != 2 {
		t.Fatalf("number_called broadcasts = %d, want 2", fx.dispatcher.countOp(OpNumberCalled))
	}
}

func TestToggleMarkBroadcastsChange(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)
	card := fx.state.Session.Cards[0]

	fx.send(t, OpToggleMark, "owner-1", toggleMarkRequest{CardID: card.ID, Number: card.Layout[0]})

	if fx.dispatcher.countOp(OpMarkChanged) != 1 {
		t.Fatalf("mark_changed broadcasts = %d, want 1", fx.dispatcher.countOp(OpMarkChanged))
	}
	var change markChangedEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpMarkChanged), &change); err != nil {
		t.Fatalf("unmarshal mark_changed: %v", err)
	}
	if !change.Marked || change.Number != card.Layout[0] {
		t.Fatalf("unexpected change: %+v", change)
	}

	fx.send(t, OpToggleMark, "owner-1", toggleMarkRequest{CardID: 99, Number: 1})
	if fx.dispatcher.countOp(OpSessionError) != 1 {
		t.Fatal("unknown card did not produce an error event")
	}
}

func TestClaimSettlesAndResetsSeat(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	card := fx.state.Session.Cards[0]
	for _, n := range card.Layout {
		fx.send(t, OpToggleMark, "owner-1", toggleMarkRequest{CardID: card.ID, Number: n})
	}
	if fx.state.Session.State != domain.StateWon {
		t.Fatalf("state = %s, want won", fx.state.Session.State)
	}
	if fx.dispatcher.countOp(OpWinDetected) != 1 {
		t.Fatalf("win_detected broadcasts = %d, want 1", fx.dispatcher.countOp(OpWinDetected))
	}

	fx.send(t, OpClaimBingo, "owner-1", nil)

	if fx.state.Session != nil {
		t.Fatal("session not cleared after settlement")
	}
	if got := fx.wallet.balances["owner-1"].Main; got != 1450 {
		t.Fatalf("balance = %d, want 1450", got)
	}

	var settled sessionSettledEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpSessionSettled), &settled); err != nil {
		t.Fatalf("unmarshal session_settled: %v", err)
	}
	if settled.Payout != 500 {
		t.Fatalf("payout = %d, want 500", settled.Payout)
	}

	var ended sessionEndedEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpSessionEnded), &ended); err != nil {
		t.Fatalf("unmarshal session_ended: %v", err)
	}
	if ended.Reason != "settled" {
		t.Fatalf("reason = %s, want settled", ended.Reason)
	}

	// The seat is reusable: a fresh session can start in the same match.
	fx.send(t, OpStartSession, "owner-1", startSessionRequest{Stake: 50, CardCount: 1})
	if fx.state.Session == nil {
		t.Fatal("could not start a new session after settlement")
	}
}

func TestClaimWithoutWinRejected(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	fx.send(t, OpClaimBingo, "owner-1", nil)

	if fx.state.Session == nil || fx.state.Session.State != domain.StateActive {
		t.Fatal("premature claim mutated the session")
	}
	if fx.dispatcher.countOp(OpSessionError) != 1 {
		t.Fatal("premature claim did not produce an error event")
	}
	if got := fx.wallet.balances["owner-1"].Main; got != 950 {
		t.Fatalf("balance = %d, want 950 (no payout)", got)
	}
}

func TestCancelForfeitsStake(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	fx.send(t, OpCancelSession, "owner-1", nil)

	if fx.state.Session != nil {
		t.Fatal("session not cleared after cancel")
	}
	if got := fx.wallet.balances["owner-1"].Main; got != 950 {
		t.Fatalf("balance = %d, want 950 (stake forfeited)", got)
	}
	var ended sessionEndedEvent
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpSessionEnded), &ended); err != nil {
		t.Fatalf("unmarshal session_ended: %v", err)
	}
	if ended.Reason != "cancelled" {
		t.Fatalf("reason = %s, want cancelled", ended.Reason)
	}
}

func TestSetAutoMarkSendsSnapshot(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	fx.send(t, OpSetAutoMark, "owner-1", setAutoMarkRequest{Enabled: true})

	if !fx.state.Session.AutoMark {
		t.Fatal("auto-mark not enabled")
	}
	var snapshot sessionSnapshot
	if err := json.Unmarshal(fx.dispatcher.lastOp(t, OpSessionState), &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if !snapshot.AutoMark || snapshot.State != string(domain.StateActive) {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestMatchLeaveKeepsActiveSession(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	next := fx.handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, fx.dispatcher, 20, fx.state, []runtime.Presence{testPresence{userID: "owner-1"}})
	if next == nil {
		t.Fatal("match terminated while a session was in progress")
	}
	state := next.(*MatchState)
	if state.EmptySinceTick != 20 {
		t.Fatalf("empty-since tick = %d, want 20", state.EmptySinceTick)
	}
	if state.Session == nil {
		t.Fatal("session dropped on leave")
	}
}

func TestMatchLeaveTerminatesIdleMatch(t *testing.T) {
	fx := newMatchFixture(t, 1000)

	next := fx.handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, fx.dispatcher, 20, fx.state, []runtime.Presence{testPresence{userID: "owner-1"}})
	if next != nil {
		t.Fatal("idle empty match not terminated")
	}
}

func TestLabelReflectsPhase(t *testing.T) {
	fx := newMatchFixture(t, 1000)
	fx.startSession(t, 50, 1, false)

	var label matchLabel
	if err := json.Unmarshal([]byte(fx.dispatcher.lastLabel), &label); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}
	if label.Game != "bingo" || label.Owner != "owner-1" {
		t.Fatalf("unexpected label: %+v", label)
	}
	if label.Phase != string(domain.StateActive) {
		t.Fatalf("phase = %s, want active", label.Phase)
	}
	if label.Open != 0 {
		t.Fatalf("open = %d, want 0", label.Open)
	}
}
