// room/errors.go
package room

import "errors"

// 房间操作的类型化失败。传输层负责把它们翻译成用户可见的短消息。
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrRoomFull         = errors.New("room is full")
	ErrGameStarted      = errors.New("game already started")
	ErrInvalidState     = errors.New("action not allowed in current room status")
	ErrPlayerEliminated = errors.New("player has no health left")
)
