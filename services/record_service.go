// services/record_service.go
package services

import (
	"errors"

	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/persistence"
)

// GameRecordService 对局落库与历史查询。数据库是尽力而为的旁路：
// 落库失败只记日志，不影响进行中的游戏。
type GameRecordService struct {
	db persistence.Database
}

func NewGameRecordService(db persistence.Database) *GameRecordService {
	return &GameRecordService{db: db}
}

// SaveFinishedGame 保存一局结束的对局记录
func (s *GameRecordService) SaveFinishedGame(record *models.GameRecord) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("保存对局记录失败 room=%s: %v", record.RoomID, err)
		return
	}
	logger.Log.Infof("对局记录已保存 room=%s story=%s winner=%q", record.RoomID, record.StoryID, record.Winner)
}

// SaveRoomState 落一份房间状态快照，用于排查线上问题
func (s *GameRecordService) SaveRoomState(snap *models.RoomSnapshot) {
	if s.db == nil {
		return
	}
	players := make(map[string]interface{}, len(snap.Players))
	for _, p := range snap.Players {
		players[p.ID] = map[string]interface{}{
			"name":     p.Name,
			"health":   p.Health,
			"is_ready": p.IsReady,
			"is_host":  p.IsHost,
		}
	}
	if err := s.db.SaveRoomState(snap.RoomID, "", snap.Status, players); err != nil {
		logger.Log.Errorf("保存房间状态失败 room=%s: %v", snap.RoomID, err)
	}
}

// ErrPersistenceDisabled 没有配置数据库时历史查询不可用
var ErrPersistenceDisabled = errors.New("persistence disabled")

// RecentRecords 查询最近的对局记录
func (s *GameRecordService) RecentRecords(limit int) ([]models.GameRecord, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	return s.db.RecentRecords(limit)
}

// RoomStats 查询房间历史统计
func (s *GameRecordService) RoomStats(roomID string) (*models.RoomStats, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.db.GetRoomStats(roomID)
}

// RoomState 读取最近一次落库的房间状态快照
func (s *GameRecordService) RoomState(roomID string) (map[string]interface{}, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.db.LoadRoomState(roomID)
}
