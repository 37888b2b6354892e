// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/turtlesoup/network"
)

// Session 一条客户端连接。加入房间后记下玩家ID和房间号，
// 断线清理时据此把玩家从房间移除。
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	PlayerName string
	RoomID     string
	Data       map[string]interface{} // 自定义数据
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		Data:       make(map[string]interface{}),
	}
}

func (s *Session) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Data[key] = value
}

func (s *Session) Get(key string) interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Data[key]
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByPlayerID 按玩家ID找会话，一名玩家可能从多个端连进来
func (m *Manager) GetByPlayerID(playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.PlayerID == playerID {
			result = append(result, session)
		}
	}
	return result
}

// GetByRoomID 返回某个房间的所有会话
func (m *Manager) GetByRoomID(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.RoomID == roomID {
			result = append(result, session)
		}
	}
	return result
}

// Count 在线会话数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
