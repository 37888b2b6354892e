// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/turtlesoup/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error
}

// RoomBroadcaster 按会话上登记的房间号做房间内广播。
// 轮询和推送对核心是等价的，这里只是推送一侧的适配。
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByRoomID(roomID) {
		if err := s.Send(msgID, data); err != nil {
			// 单条连接发送失败不中断整个广播，连接清理交给读循环
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error {
	for _, playerID := range playerIDs {
		for _, s := range b.sessionManager.GetByPlayerID(playerID) {
			if err := s.Send(msgID, data); err != nil {
				continue
			}
		}
	}
	return nil
}
