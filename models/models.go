// models/models.go
package models

import (
	"time"
)

// AnswerType AI主持人对提问的四种回答
type AnswerType string

const (
	AnswerYes        AnswerType = "yes"
	AnswerNo         AnswerType = "no"
	AnswerClose      AnswerType = "close"
	AnswerIrrelevant AnswerType = "irrelevant"
)

// MessageType 聊天记录条目的类型
type MessageType string

const (
	MessageQuestion MessageType = "question"
	MessageAnswer   MessageType = "answer"
	MessageGuess    MessageType = "guess"
	MessageHint     MessageType = "hint"
	MessageSystem   MessageType = "system"
)

// 保留的发言者ID，系统消息和AI回复不属于任何玩家
const (
	SystemPlayerID = "system"
	AIPlayerID     = "ai"

	SystemPlayerName = "系统"
	AIPlayerName     = "AI主持人"
)

// Player 房间内的玩家
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Health  int    `json:"health"`
	IsReady bool   `json:"is_ready"`
	IsHost  bool   `json:"is_host"`
}

// ChatMessage 聊天记录条目，追加后不可修改
type ChatMessage struct {
	ID         string      `json:"id"`
	PlayerID   string      `json:"player_id"`
	PlayerName string      `json:"player_name"`
	Message    string      `json:"message"`
	Type       MessageType `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
	AIResponse string      `json:"ai_response,omitempty"`
}

// Clue 游戏过程中发现的线索
type Clue struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DiscoveredBy string    `json:"discovered_by"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Story 一道海龟汤题目：汤面是展示给玩家的谜题，汤底是完整解答
type Story struct {
	ID        string `json:"id"`
	Prompt    string `json:"prompt"`
	Solution  string `json:"solution"`
	Archetype string `json:"archetype"`
}

// Answer 问题分类结果
type Answer struct {
	Answer      AnswerType `json:"answer"`
	Score       float64    `json:"score"`
	Explanation string     `json:"explanation,omitempty"`
}

// GuessResult 猜测评估结果
type GuessResult struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	Message   string  `json:"message"`
	FullStory string  `json:"full_story,omitempty"`
}

// RoomSnapshot 房间状态的一致性只读快照，供传输层下发给客户端
type RoomSnapshot struct {
	RoomID      string        `json:"room_id"`
	Players     []Player      `json:"players"`
	CurrentTurn string        `json:"current_turn"`
	Status      string        `json:"status"`
	StoryPrompt string        `json:"story_prompt"`
	Clues       []Clue        `json:"clues"`
	Chat        []ChatMessage `json:"chat"`
	MaxHealth   int           `json:"max_health"`
	TimeLimit   int           `json:"time_limit"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
}

// PlayerOutcome 玩家单局结果（用于对局记录）
type PlayerOutcome struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Health   int    `json:"health"`
	Outcome  string `json:"outcome"` // win/lose
}

// GameRecord 一局结束后落库的对局记录
type GameRecord struct {
	RoomID    string          `json:"room_id"`
	StoryID   string          `json:"story_id"`
	Winner    string          `json:"winner"`
	Players   []PlayerOutcome `json:"players"`
	Questions int             `json:"questions"`
	Guesses   int             `json:"guesses"`
	Hints     int             `json:"hints"`
	Duration  time.Duration   `json:"duration"`
	CreatedAt time.Time       `json:"created_at"`
}
