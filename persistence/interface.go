// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/turtlesoup/models"
)

// Database 数据库接口。只有结束的对局和观测性的房间状态会落库，
// 进行中的房间完全活在内存里。
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	SaveRoomState(roomID, storyID, status string, players map[string]interface{}) error
	LoadRoomState(roomID string) (map[string]interface{}, error)
	RecentRecords(limit int) ([]models.GameRecord, error)
	GetRoomStats(roomID string) (*models.RoomStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
