package state

import (
	"errors"
	"sync"
)

// 房间生命周期的三个状态ID
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现。状态只在显式调用 ChangeState 时切换，
// 没有登记过的转换路径一律拒绝，避免房间从 finished 再回到游戏中。
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	conditions, exists := sm.transitions[currentID]
	if !exists {
		return ErrTransitionNotAllowed
	}
	condition, exists := conditions[newID]
	if !exists {
		return ErrTransitionNotAllowed
	}
	if condition != nil && !condition() {
		return ErrTransitionNotAllowed
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
	// 默认实现
}

func (s *RoomStateBase) OnExit() {
	// 默认实现
}

// 等待状态：玩家陆续加入并准备
type WaitingState struct {
	RoomStateBase
}

// NewWaitingState creates a new waiting state.
func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{RoomStateBase: RoomStateBase{ID: StatusWaiting, Room: room}}
}

// 游戏进行状态：回合轮转，提问/猜测/提示消耗血量
type PlayingState struct {
	RoomStateBase
}

// NewPlayingState creates a new playing state.
func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{RoomStateBase: RoomStateBase{ID: StatusPlaying, Room: room}}
}

// 结束状态：终态，除读取外不再接受任何变更
type FinishedState struct {
	RoomStateBase
}

// NewFinishedState creates a new finished state.
func NewFinishedState(room RoomContext) *FinishedState {
	return &FinishedState{RoomStateBase: RoomStateBase{ID: StatusFinished, Room: room}}
}
