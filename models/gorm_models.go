// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID    string                 `gorm:"index;not null"`
	StoryID   string                 `gorm:"index;not null"`
	Winner    string                 `gorm:""`
	Players   map[string]interface{} `gorm:"type:jsonb;not null"`
	Questions int                    `gorm:"default:0"`
	Guesses   int                    `gorm:"default:0"`
	Hints     int                    `gorm:"default:0"`
	Duration  int                    `gorm:"default:0"` // 游戏时长(秒)
}

// GormRoomState 房间状态模型（用于观测/恢复排查，非热路径）
type GormRoomState struct {
	gorm.Model
	RoomID  string                 `gorm:"uniqueIndex;not null"`
	StoryID string                 `gorm:"not null"`
	Status  string                 `gorm:"not null"`
	Players map[string]interface{} `gorm:"type:jsonb"`
}

// RoomStats 一个房间的历史统计信息
type RoomStats struct {
	TotalGames int `json:"total_games"`
	Solved     int `json:"solved"`
	Unsolved   int `json:"unsolved"`
	Questions  int `json:"questions"`
	Guesses    int `json:"guesses"`
	Hints      int `json:"hints"`
}
