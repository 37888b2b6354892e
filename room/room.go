// room/room.go
package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/state"
)

// Room 是一局海龟汤游戏的核心结构，是自身状态的唯一修改者。
// 所有变更都在房间锁内完成：对同一房间的请求严格串行，
// 引擎调用也在锁内等待，保证聊天记录顺序与请求接受顺序一致。
type Room struct {
	ID        string
	players   []*models.Player
	turnIndex int
	turn      string
	machine   state.StateMachine
	story     *models.Story
	clues     []models.Clue
	chat      []models.ChatMessage

	maxPlayers int
	maxHealth  int
	timeLimit  int // 分钟

	createdAt  time.Time
	startedAt  *time.Time
	lastActive time.Time

	narrator Narrator

	questions int
	guesses   int
	hints     int

	mutex sync.Mutex
}

// ActionResult 一次提问/猜测/提示操作的完整结果
type ActionResult struct {
	PlayerMessage models.ChatMessage
	EngineMessage models.ChatMessage
	Answer        *models.Answer      // 仅提问
	Guess         *models.GuessResult // 仅猜测
	Hint          string              // 仅提示
	Health        int                 // 操作后该玩家的剩余血量
}

// NewRoom 创建房间并放入一名满血的房主，房主默认已准备
func NewRoom(id, hostName string, maxPlayers, maxHealth, timeLimit int, st *models.Story, narrator Narrator) *Room {
	now := time.Now()
	r := &Room{
		ID:         id,
		turnIndex:  -1,
		story:      st,
		maxPlayers: maxPlayers,
		maxHealth:  maxHealth,
		timeLimit:  timeLimit,
		createdAt:  now,
		lastActive: now,
		narrator:   narrator,
	}

	r.players = append(r.players, &models.Player{
		ID:      uuid.New().String(),
		Name:    hostName,
		Health:  maxHealth,
		IsReady: true,
		IsHost:  true,
	})

	// 初始化状态机并登记合法转换，finished 是终态
	waiting := state.NewWaitingState(r)
	r.machine = state.NewBaseStateMachine(waiting)
	r.machine.AddTransition(waiting, state.NewPlayingState(r), r.readyToStart)
	r.machine.AddTransition(waiting, state.NewFinishedState(r), nil)
	r.machine.AddTransition(state.NewPlayingState(r), state.NewFinishedState(r), nil)

	return r
}

// --- 实现 state.RoomContext 接口 ---

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

// PlayerCount 返回当前玩家数
func (r *Room) PlayerCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.players)
}

// AllReady 是否所有玩家都已准备
func (r *Room) AllReady() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.allReady()
}

// readyToStart 状态机转换条件，在房间锁内调用，不能再上锁
func (r *Room) readyToStart() bool {
	return len(r.players) >= 1 && r.allReady()
}

func (r *Room) allReady() bool {
	for _, p := range r.players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// Status 返回房间当前状态（waiting/playing/finished）
func (r *Room) Status() string {
	return r.machine.GetCurrentState().GetID()
}

// --- 大厅操作 ---

// Join 加入房间。状态不是等待中或已满员时拒绝。
func (r *Room) Join(playerName string) (*models.Player, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Status() != state.StatusWaiting {
		return nil, ErrGameStarted
	}
	if len(r.players) >= r.maxPlayers {
		return nil, ErrRoomFull
	}

	p := &models.Player{
		ID:     uuid.New().String(),
		Name:   playerName,
		Health: r.maxHealth,
	}
	r.players = append(r.players, p)
	r.touch()
	return r.copyPlayer(p), nil
}

// Leave 移除玩家。房主离开时按加入顺序把房主转给下一个人；
// 返回房间是否因此变空（变空的房间由管理器删除）。
func (r *Room) Leave(playerID string) (empty bool, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	idx := r.indexOf(playerID)
	if idx < 0 {
		return false, ErrPlayerNotFound
	}

	wasHost := r.players[idx].IsHost
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.touch()

	if len(r.players) == 0 {
		return true, nil
	}

	if wasHost {
		next := idx
		if next >= len(r.players) {
			next = 0
		}
		r.players[next].IsHost = true
	}

	// 回合指针修正：被移除的玩家在指针之前时指针前移一位；
	// 正好是当前回合玩家时，指针落到顶替其位置的下一个人。
	if r.turnIndex >= 0 {
		switch {
		case idx < r.turnIndex:
			r.turnIndex--
		case idx == r.turnIndex:
			if r.turnIndex >= len(r.players) {
				r.turnIndex = 0
			}
			r.turn = r.players[r.turnIndex].ID
		}
	}

	return false, nil
}

// ToggleReady 翻转准备标记，只在等待状态有效
func (r *Room) ToggleReady(playerID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Status() != state.StatusWaiting {
		return ErrInvalidState
	}
	idx := r.indexOf(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	r.players[idx].IsReady = !r.players[idx].IsReady
	r.touch()
	return nil
}

// Start 开始游戏：要求等待状态且所有人已准备。
// 回合指针落到第一个玩家，追加一条开局系统消息（只公开汤面）。
func (r *Room) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.machine.ChangeState(state.NewPlayingState(r)); err != nil {
		return ErrInvalidState
	}

	now := time.Now()
	r.startedAt = &now
	r.turnIndex = 0
	r.turn = r.players[0].ID
	r.touch()

	r.appendMessage(models.SystemPlayerID, models.SystemPlayerName,
		fmt.Sprintf("游戏开始！汤面：%s", r.story.Prompt), models.MessageSystem, "")
	return nil
}

// --- 游戏中的复合操作 ---

// SubmitQuestion 提问：追加玩家消息，引擎分类后追加回答消息，扣<1>点血。
// 不论回答是什么血量都减一；血量耗尽的玩家被拒绝。
func (r *Room) SubmitQuestion(ctx context.Context, playerID, question string) (*ActionResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, err := r.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}

	playerMsg := r.appendMessage(p.ID, p.Name, question, models.MessageQuestion, "")

	answer, err := r.narrator.AnswerQuestion(ctx, question, r.story)
	if err != nil {
		// 引擎层自带兜底，这里再防御一层，保证提问消息不会没有回应
		answer = &models.Answer{Answer: models.AnswerIrrelevant, Explanation: "主持人暂时无法回答，请换个问法。"}
	}

	engineMsg := r.appendMessage(models.AIPlayerID, models.AIPlayerName,
		answerText(answer.Answer), models.MessageAnswer, string(answer.Answer))

	// 被确认为"是"的提问就是一条已坐实的线索，
	// 线索数量决定后续提示的明确程度
	if answer.Answer == models.AnswerYes {
		r.recordClue(p.ID, question)
	}

	p.Health--
	r.questions++
	r.touch()

	return &ActionResult{
		PlayerMessage: playerMsg,
		EngineMessage: engineMsg,
		Answer:        answer,
		Health:        p.Health,
	}, nil
}

// SubmitGuess 猜测汤底。猜对与否都扣血；猜对不会自动结束游戏，
// 由传输层确认后调用 End。
func (r *Room) SubmitGuess(ctx context.Context, playerID, guess string) (*ActionResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, err := r.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}

	playerMsg := r.appendMessage(p.ID, p.Name, fmt.Sprintf("我猜测：%s", guess), models.MessageGuess, "")

	result, err := r.narrator.CheckGuess(ctx, guess, r.story)
	if err != nil {
		result = &models.GuessResult{Message: "主持人暂时无法判定，请再猜一次。"}
	}

	engineMsg := r.appendMessage(models.AIPlayerID, models.AIPlayerName,
		result.Message, models.MessageAnswer, "")

	p.Health--
	r.guesses++
	r.touch()

	return &ActionResult{
		PlayerMessage: playerMsg,
		EngineMessage: engineMsg,
		Guess:         result,
		Health:        p.Health,
	}, nil
}

// RequestHint 请求提示，同样遵循"玩家消息+引擎消息+扣血"的固定次序
func (r *Room) RequestHint(ctx context.Context, playerID string) (*ActionResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, err := r.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}

	playerMsg := r.appendMessage(p.ID, p.Name, "请求提示", models.MessageHint, "")

	hint, err := r.narrator.GenerateHint(ctx, r.story, r.clueTitles())
	if err != nil {
		hint = "把已经确认的事实按时间顺序排一排。"
	}

	engineMsg := r.appendMessage(models.AIPlayerID, models.AIPlayerName,
		fmt.Sprintf("提示：%s", hint), models.MessageHint, "")

	p.Health--
	r.hints++
	r.touch()

	return &ActionResult{
		PlayerMessage: playerMsg,
		EngineMessage: engineMsg,
		Hint:          hint,
		Health:        p.Health,
	}, nil
}

// actingPlayer 复合操作共用的前置校验
func (r *Room) actingPlayer(playerID string) (*models.Player, error) {
	if r.Status() != state.StatusPlaying {
		return nil, ErrInvalidState
	}
	idx := r.indexOf(playerID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	p := r.players[idx]
	if p.Health <= 0 {
		return nil, ErrPlayerEliminated
	}
	return p, nil
}

// AdvanceTurn 把回合指针转到加入顺序的下一个玩家，到底后回绕。
// 当前回合玩家已离开时，从其最后的位置继续回绕。
func (r *Room) AdvanceTurn() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.players) == 0 || r.turnIndex < 0 {
		return ""
	}
	r.turnIndex = (r.turnIndex + 1) % len(r.players)
	r.turn = r.players[r.turnIndex].ID
	r.touch()
	return r.turn
}

// End 把房间置为结束态。终态，此后只接受读取。
func (r *Room) End() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.machine.ChangeState(state.NewFinishedState(r)); err != nil {
		return ErrInvalidState
	}
	r.touch()
	return nil
}

// recordClue 登记一条线索，在房间锁内调用
func (r *Room) recordClue(playerID, title string) {
	r.clues = append(r.clues, models.Clue{
		ID:           uuid.New().String(),
		Title:        title,
		DiscoveredBy: playerID,
		DiscoveredAt: time.Now(),
	})
}

// --- 只读访问 ---

// AllEliminated 所有玩家血量是否都已耗尽。
// 房间自己不会据此结束游戏，结束与否由传输层判断并调用 End。
func (r *Room) AllEliminated() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if p.Health > 0 {
			return false
		}
	}
	return true
}

// TimeExpired 游戏时长是否已超过限制
func (r *Room) TimeExpired(now time.Time) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.startedAt == nil || r.timeLimit <= 0 {
		return false
	}
	return now.Sub(*r.startedAt) > time.Duration(r.timeLimit)*time.Minute
}

// IdleSince 最后一次活动到现在的时长
func (r *Room) IdleSince(now time.Time) time.Duration {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return now.Sub(r.lastActive)
}

// Story 返回房间绑定的题目
func (r *Room) Story() *models.Story {
	return r.story
}

// Snapshot 构建一致性只读快照，轮询和推送都基于它
func (r *Room) Snapshot() *models.RoomSnapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	snap := &models.RoomSnapshot{
		RoomID:      r.ID,
		CurrentTurn: r.turn,
		Status:      r.Status(),
		StoryPrompt: r.story.Prompt,
		MaxHealth:   r.maxHealth,
		TimeLimit:   r.timeLimit,
		StartedAt:   r.startedAt,
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, *p)
	}
	snap.Clues = append(snap.Clues, r.clues...)
	snap.Chat = append(snap.Chat, r.chat...)
	return snap
}

// Record 导出对局记录，winner 为空表示无人猜中
func (r *Room) Record(winnerID string) *models.GameRecord {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record := &models.GameRecord{
		RoomID:    r.ID,
		StoryID:   r.story.ID,
		Winner:    winnerID,
		Questions: r.questions,
		Guesses:   r.guesses,
		Hints:     r.hints,
		CreatedAt: time.Now(),
	}
	if r.startedAt != nil {
		record.Duration = time.Since(*r.startedAt)
	}
	for _, p := range r.players {
		outcome := "lose"
		if p.ID == winnerID {
			outcome = "win"
		}
		record.Players = append(record.Players, models.PlayerOutcome{
			PlayerID: p.ID,
			Name:     p.Name,
			Health:   p.Health,
			Outcome:  outcome,
		})
	}
	return record
}

// --- 内部工具 ---

func (r *Room) indexOf(playerID string) int {
	for i, p := range r.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) clueTitles() []string {
	titles := make([]string, 0, len(r.clues))
	for _, c := range r.clues {
		titles = append(titles, c.Title)
	}
	return titles
}

func (r *Room) appendMessage(playerID, playerName, message string, msgType models.MessageType, aiTag string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Message:    message,
		Type:       msgType,
		Timestamp:  time.Now(),
		AIResponse: aiTag,
	}
	r.chat = append(r.chat, msg)
	return msg
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}

func (r *Room) copyPlayer(p *models.Player) *models.Player {
	cp := *p
	return &cp
}

// answerText 回答档位对应的玩家可见文本
func answerText(answer models.AnswerType) string {
	switch answer {
	case models.AnswerYes:
		return "是"
	case models.AnswerNo:
		return "不是"
	case models.AnswerClose:
		return "你已经接近了"
	default:
		return "无关"
	}
}

// --- 房间管理器 ---

// 房间号字符集，去掉了易混淆的 0/O/1/I
const roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomCodeLen = 6

// Options 管理器级别的游戏参数
type Options struct {
	MaxHealth         int
	DefaultMaxPlayers int
	DefaultTimeLimit  int // 分钟
}

// Manager 管理所有房间，是传输层唯一的入口
type Manager struct {
	rooms    map[string]*Room
	narrator Narrator
	pick     func() *models.Story
	opts     Options
	rng      *rand.Rand
	mutex    sync.RWMutex
}

// NewManager 创建房间管理器。pick 负责为新房间抽题。
func NewManager(narrator Narrator, pick func() *models.Story, opts Options) *Manager {
	if opts.MaxHealth <= 0 {
		opts.MaxHealth = 5
	}
	if opts.DefaultMaxPlayers <= 0 {
		opts.DefaultMaxPlayers = 4
	}
	if opts.DefaultTimeLimit <= 0 {
		opts.DefaultTimeLimit = 30
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		narrator: narrator,
		pick:     pick,
		opts:     opts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom 生成房间号并创建房间，返回房间和房主
func (m *Manager) CreateRoom(hostName string, maxPlayers, timeLimit int) (*Room, *models.Player) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if maxPlayers <= 0 {
		maxPlayers = m.opts.DefaultMaxPlayers
	}
	if timeLimit <= 0 {
		timeLimit = m.opts.DefaultTimeLimit
	}

	id := m.newRoomCode()
	r := NewRoom(id, hostName, maxPlayers, m.opts.MaxHealth, timeLimit, m.pick(), m.narrator)
	m.rooms[id] = r

	host := *r.players[0]
	return r, &host
}

// newRoomCode 生成未占用的短房间号，在锁内调用
func (m *Manager) newRoomCode() string {
	for {
		code := make([]byte, roomCodeLen)
		for i := range code {
			code[i] = roomCodeChars[m.rng.Intn(len(roomCodeChars))]
		}
		if _, exists := m.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

// GetRoom 查找房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.rooms[id]
	return r, exists
}

// RemoveRoom 删除房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

// JoinRoom 加入房间
func (m *Manager) JoinRoom(roomID, playerName string) (*models.Player, error) {
	r, exists := m.GetRoom(roomID)
	if !exists {
		return nil, ErrRoomNotFound
	}
	return r.Join(playerName)
}

// LeaveRoom 离开房间，最后一名玩家离开时整个房间被删除
func (m *Manager) LeaveRoom(roomID, playerID string) (bool, error) {
	r, exists := m.GetRoom(roomID)
	if !exists {
		return false, ErrRoomNotFound
	}
	empty, err := r.Leave(playerID)
	if err != nil {
		return false, err
	}
	if empty {
		m.RemoveRoom(roomID)
	}
	return true, nil
}

// Rooms 返回所有房间的切片副本，供定时巡检使用
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// RoomCount 当前活跃房间数
func (m *Manager) RoomCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// PlayerCount 所有房间的玩家总数
func (m *Manager) PlayerCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := 0
	for _, r := range m.rooms {
		total += r.PlayerCount()
	}
	return total
}

// Sweep 回收闲置超过 ttl 的房间，返回回收数量
func (m *Manager) Sweep(ttl time.Duration) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	removed := 0
	for id, r := range m.rooms {
		if r.IdleSince(now) > ttl {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}
