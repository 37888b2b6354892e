package network

const (
	MsgTypeHeartbeat   = 1
	MsgTypeCreateRoom  = 101
	MsgTypeJoinRoom    = 102
	MsgTypeLeaveRoom   = 103
	MsgTypeToggleReady = 104
	MsgTypeStartGame   = 105
	MsgTypeQuestion    = 201
	MsgTypeGuess       = 202
	MsgTypeHint        = 203
	MsgTypeRoomState   = 301
	MsgTypeChat        = 302
	MsgTypeGameStart   = 303
	MsgTypeGameEnd     = 304
	MsgTypeError       = 400
)
