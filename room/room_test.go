package room

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/state"
)

// stubNarrator is a test double for the Narrator interface.
type stubNarrator struct {
	answer models.AnswerType
	fail   bool
}

func (n *stubNarrator) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	if n.fail {
		return nil, context.DeadlineExceeded
	}
	answer := n.answer
	if answer == "" {
		answer = models.AnswerYes
	}
	return &models.Answer{Answer: answer, Score: 0.9}, nil
}

func (n *stubNarrator) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	if n.fail {
		return nil, context.DeadlineExceeded
	}
	if guess == st.Solution {
		return &models.GuessResult{IsCorrect: true, Score: 1, Message: "恭喜！你猜对了！", FullStory: st.Solution}, nil
	}
	return &models.GuessResult{Score: 0.1, Message: "猜错了，继续努力！"}, nil
}

func (n *stubNarrator) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	if n.fail {
		return "", context.DeadlineExceeded
	}
	return "注意环境因素", nil
}

var testStory = &models.Story{
	ID:        "test-story",
	Prompt:    "一个男人尝了一口汤，然后自杀了。为什么？",
	Solution:  "他认出了那个味道。",
	Archetype: "general",
}

func newTestManager() *Manager {
	return NewManager(&stubNarrator{}, func() *models.Story { return testStory }, Options{
		MaxHealth:         5,
		DefaultMaxPlayers: 4,
		DefaultTimeLimit:  30,
	})
}

// startedRoom 返回 Alice(房主) 和 Bob 都已就绪并开局的房间
func startedRoom(t *testing.T) (*Manager, *Room, *models.Player, *models.Player) {
	t.Helper()

	manager := newTestManager()
	r, alice := manager.CreateRoom("Alice", 4, 30)

	bob, err := r.Join("Bob")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := r.ToggleReady(bob.ID); err != nil {
		t.Fatalf("ToggleReady failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return manager, r, alice, bob
}

func TestManager_CreateRoom(t *testing.T) {
	manager := newTestManager()
	r, host := manager.CreateRoom("Alice", 4, 30)

	if r == nil {
		t.Fatal("CreateRoom should not return nil")
	}
	if len(r.ID) != roomCodeLen {
		t.Errorf("Expected a %d-char room code, got %q", roomCodeLen, r.ID)
	}
	if r.Status() != state.StatusWaiting {
		t.Errorf("Expected status waiting, got %s", r.Status())
	}

	if !host.IsHost {
		t.Error("Creator should be the host")
	}
	if !host.IsReady {
		t.Error("Host should default to ready")
	}
	if host.Health != 5 {
		t.Errorf("Expected host health 5, got %d", host.Health)
	}

	retrieved, exists := manager.GetRoom(r.ID)
	if !exists || retrieved != r {
		t.Fatal("GetRoom should return the created room instance")
	}
}

func TestRoom_Join(t *testing.T) {
	manager := newTestManager()
	r, _ := manager.CreateRoom("Alice", 4, 30)

	bob, err := r.Join("Bob")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if bob.IsHost {
		t.Error("Joining player should not be host")
	}
	if bob.IsReady {
		t.Error("Joining player should start not ready")
	}
	if bob.Health != 5 {
		t.Errorf("Expected full health 5, got %d", bob.Health)
	}

	snap := r.Snapshot()
	if len(snap.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(snap.Players))
	}
}

func TestRoom_Join_Full(t *testing.T) {
	manager := newTestManager()
	r, _ := manager.CreateRoom("Alice", 2, 30)

	if _, err := r.Join("Bob"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := r.Join("Carol"); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
}

func TestRoom_Join_AfterStart(t *testing.T) {
	_, r, _, _ := startedRoom(t)

	if _, err := r.Join("Carol"); err != ErrGameStarted {
		t.Errorf("Expected ErrGameStarted, got %v", err)
	}
}

func TestRoom_Leave_PromotesHost(t *testing.T) {
	manager := newTestManager()
	r, alice := manager.CreateRoom("Alice", 4, 30)
	bob, _ := r.Join("Bob")
	carol, _ := r.Join("Carol")

	empty, err := r.Leave(alice.ID)
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if empty {
		t.Fatal("Room should not be empty")
	}

	// 房主离开后，按加入顺序的下一个人立刻接任，且只有一个房主
	snap := r.Snapshot()
	hosts := 0
	for _, p := range snap.Players {
		if p.IsHost {
			hosts++
			if p.ID != bob.ID {
				t.Errorf("Expected Bob to be promoted, got %s", p.Name)
			}
		}
	}
	if hosts != 1 {
		t.Errorf("Expected exactly one host, got %d", hosts)
	}
	_ = carol
}

func TestManager_LeaveRoom_DeletesEmptyRoom(t *testing.T) {
	manager := newTestManager()
	r, alice := manager.CreateRoom("Alice", 4, 30)

	removed, err := manager.LeaveRoom(r.ID, alice.ID)
	if err != nil || !removed {
		t.Fatalf("LeaveRoom failed: removed=%v err=%v", removed, err)
	}
	if _, exists := manager.GetRoom(r.ID); exists {
		t.Error("Empty room should be deleted")
	}
}

func TestRoom_Start_RequiresAllReady(t *testing.T) {
	manager := newTestManager()
	r, _ := manager.CreateRoom("Alice", 4, 30)
	bob, _ := r.Join("Bob")

	// Bob 未准备，开局必须失败
	if err := r.Start(); err != ErrInvalidState {
		t.Fatalf("Expected ErrInvalidState while Bob not ready, got %v", err)
	}

	if err := r.ToggleReady(bob.ID); err != nil {
		t.Fatalf("ToggleReady failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start should succeed once everyone is ready: %v", err)
	}

	snap := r.Snapshot()
	if snap.Status != state.StatusPlaying {
		t.Errorf("Expected status playing, got %s", snap.Status)
	}
	// 回合指针落在第一个加入的玩家（房主）身上
	if snap.CurrentTurn != snap.Players[0].ID {
		t.Errorf("Expected first player's turn, got %s", snap.CurrentTurn)
	}
	// 开局追加了一条系统消息，且不包含汤底
	if len(snap.Chat) != 1 || snap.Chat[0].Type != models.MessageSystem {
		t.Fatalf("Expected a single system message, got %+v", snap.Chat)
	}
	if strings.Contains(snap.Chat[0].Message, testStory.Solution) {
		t.Error("Start message must not reveal the solution")
	}
}

func TestRoom_SubmitQuestion(t *testing.T) {
	_, r, alice, _ := startedRoom(t)

	result, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？")
	if err != nil {
		t.Fatalf("SubmitQuestion failed: %v", err)
	}

	if result.Health != 4 {
		t.Errorf("Expected health 5 -> 4, got %d", result.Health)
	}
	if result.Answer == nil || result.Answer.Answer != models.AnswerYes {
		t.Errorf("Unexpected answer: %+v", result.Answer)
	}

	// 恰好追加两条消息：玩家的提问，然后是引擎的回答
	snap := r.Snapshot()
	n := len(snap.Chat)
	if n < 2 {
		t.Fatalf("Expected at least 2 chat entries, got %d", n)
	}
	playerMsg, engineMsg := snap.Chat[n-2], snap.Chat[n-1]
	if playerMsg.PlayerID != alice.ID || playerMsg.Type != models.MessageQuestion {
		t.Errorf("Expected player question entry, got %+v", playerMsg)
	}
	if engineMsg.PlayerID != models.AIPlayerID || engineMsg.Type != models.MessageAnswer {
		t.Errorf("Expected engine answer entry, got %+v", engineMsg)
	}
	if engineMsg.AIResponse != string(models.AnswerYes) {
		t.Errorf("Expected AI tag yes, got %q", engineMsg.AIResponse)
	}

	// 被回答"是"的提问自动登记为线索
	if len(snap.Clues) != 1 || snap.Clues[0].DiscoveredBy != alice.ID {
		t.Errorf("Expected the confirmed question recorded as a clue, got %+v", snap.Clues)
	}
}

func TestRoom_SubmitQuestion_EngineFailureStillAnswers(t *testing.T) {
	manager := NewManager(&stubNarrator{fail: true}, func() *models.Story { return testStory }, Options{})
	r, alice := manager.CreateRoom("Alice", 4, 30)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	result, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？")
	if err != nil {
		t.Fatalf("SubmitQuestion must not fail when the engine does: %v", err)
	}
	// 玩家消息绝不孤儿：哪怕引擎失败也要有回应消息
	if result.EngineMessage.Message == "" {
		t.Error("Expected a non-empty engine response message")
	}
	if result.Health != 4 {
		t.Errorf("Expected health to drop to 4, got %d", result.Health)
	}
}

func TestRoom_SubmitGuess_Correct(t *testing.T) {
	_, r, alice, _ := startedRoom(t)

	result, err := r.SubmitGuess(context.Background(), alice.ID, testStory.Solution)
	if err != nil {
		t.Fatalf("SubmitGuess failed: %v", err)
	}
	if result.Guess == nil || !result.Guess.IsCorrect {
		t.Fatalf("Expected a correct guess, got %+v", result.Guess)
	}
	if result.Guess.FullStory == "" {
		t.Error("Correct guess must include the full story reveal")
	}
	// 猜对同样扣血，终局与否由传输层决定
	if result.Health != 4 {
		t.Errorf("Expected health 4 after guess, got %d", result.Health)
	}
	if r.Status() != state.StatusPlaying {
		t.Errorf("Store must not auto-end the game, status=%s", r.Status())
	}
}

func TestRoom_RequestHint(t *testing.T) {
	_, r, alice, _ := startedRoom(t)

	before := len(r.Snapshot().Chat)
	result, err := r.RequestHint(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("RequestHint failed: %v", err)
	}
	if result.Hint == "" {
		t.Error("Expected a non-empty hint")
	}

	snap := r.Snapshot()
	if len(snap.Chat) != before+2 {
		t.Fatalf("Expected exactly 2 new chat entries, got %d", len(snap.Chat)-before)
	}
	if snap.Chat[before].PlayerID != alice.ID {
		t.Error("First new entry should be player-authored")
	}
	if snap.Chat[before+1].PlayerID != models.AIPlayerID {
		t.Error("Second new entry should be engine-authored")
	}
}

func TestRoom_EliminatedPlayerRejected(t *testing.T) {
	_, r, alice, _ := startedRoom(t)

	// 耗尽 Alice 的5点血量
	for i := 0; i < 5; i++ {
		if _, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？"); err != nil {
			t.Fatalf("Question %d failed: %v", i, err)
		}
	}

	if _, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？"); err != ErrPlayerEliminated {
		t.Errorf("Expected ErrPlayerEliminated for question, got %v", err)
	}
	if _, err := r.SubmitGuess(context.Background(), alice.ID, "随便猜"); err != ErrPlayerEliminated {
		t.Errorf("Expected ErrPlayerEliminated for guess, got %v", err)
	}
	if _, err := r.RequestHint(context.Background(), alice.ID); err != ErrPlayerEliminated {
		t.Errorf("Expected ErrPlayerEliminated for hint, got %v", err)
	}

	// 血量只减不增，且不会跌破0
	for _, p := range r.Snapshot().Players {
		if p.ID == alice.ID && p.Health != 0 {
			t.Errorf("Expected health exactly 0, got %d", p.Health)
		}
	}
}

func TestRoom_AdvanceTurn_Wraps(t *testing.T) {
	_, r, alice, bob := startedRoom(t)

	if next := r.AdvanceTurn(); next != bob.ID {
		t.Errorf("Expected Bob's turn, got %s", next)
	}
	if next := r.AdvanceTurn(); next != alice.ID {
		t.Errorf("Expected wrap back to Alice, got %s", next)
	}
}

func TestRoom_AdvanceTurn_AfterCurrentPlayerLeft(t *testing.T) {
	manager := newTestManager()
	r, alice := manager.CreateRoom("Alice", 4, 30)
	bob, _ := r.Join("Bob")
	carol, _ := r.Join("Carol")
	r.ToggleReady(bob.ID)
	r.ToggleReady(carol.ID)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 轮到 Bob 后 Bob 离开：指针落到顶替其位置的 Carol，再转回 Alice
	r.AdvanceTurn()
	if _, err := r.Leave(bob.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	snap := r.Snapshot()
	if snap.CurrentTurn != carol.ID {
		t.Errorf("Expected turn to pass to Carol, got %s", snap.CurrentTurn)
	}
	if next := r.AdvanceTurn(); next != alice.ID {
		t.Errorf("Expected wrap to Alice, got %s", next)
	}
}

func TestRoom_AllEliminated_DoesNotAutoEnd(t *testing.T) {
	manager := newTestManager()
	r, alice := manager.CreateRoom("Alice", 4, 30)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？"); err != nil {
			t.Fatalf("Question %d failed: %v", i, err)
		}
	}

	if !r.AllEliminated() {
		t.Fatal("Expected all players eliminated")
	}
	// 存储自己从不终局，要由外部显式调用 End
	if r.Status() != state.StatusPlaying {
		t.Errorf("Expected status still playing, got %s", r.Status())
	}
	if err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if r.Status() != state.StatusFinished {
		t.Errorf("Expected status finished, got %s", r.Status())
	}
}

func TestRoom_End_IsTerminal(t *testing.T) {
	_, r, alice, bob := startedRoom(t)

	if err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if _, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？"); err != ErrInvalidState {
		t.Errorf("Expected ErrInvalidState after end, got %v", err)
	}
	if err := r.ToggleReady(bob.ID); err != ErrInvalidState {
		t.Errorf("Expected ErrInvalidState after end, got %v", err)
	}
	if err := r.End(); err != ErrInvalidState {
		t.Errorf("End twice should fail, got %v", err)
	}
}

func TestManager_Sweep(t *testing.T) {
	manager := newTestManager()
	r, _ := manager.CreateRoom("Alice", 4, 30)

	if removed := manager.Sweep(time.Hour); removed != 0 {
		t.Errorf("Fresh room should not be swept, removed=%d", removed)
	}

	// 把最后活动时间拨回过去，模拟闲置了超过回收阈值的房间
	r.mutex.Lock()
	r.lastActive = time.Now().Add(-3 * time.Hour)
	r.mutex.Unlock()

	if removed := manager.Sweep(2 * time.Hour); removed != 1 {
		t.Errorf("Expected 1 room swept, got %d", removed)
	}
	if _, exists := manager.GetRoom(r.ID); exists {
		t.Error("Swept room should be gone")
	}
}

func TestRoom_Record(t *testing.T) {
	_, r, alice, _ := startedRoom(t)

	if _, err := r.SubmitQuestion(context.Background(), alice.ID, "他死了吗？"); err != nil {
		t.Fatalf("SubmitQuestion failed: %v", err)
	}

	record := r.Record(alice.ID)
	if record.Questions != 1 {
		t.Errorf("Expected 1 question counted, got %d", record.Questions)
	}
	if record.Winner != alice.ID {
		t.Errorf("Expected winner %s, got %s", alice.ID, record.Winner)
	}
	wins := 0
	for _, p := range record.Players {
		if p.Outcome == "win" {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly one winner outcome, got %d", wins)
	}
}
