package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	netrpc "net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/turtlesoup/broadcast"
	"github.com/wfunc/turtlesoup/config"
	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/monitor"
	"github.com/wfunc/turtlesoup/network"
	"github.com/wfunc/turtlesoup/room"
	gamerpc "github.com/wfunc/turtlesoup/rpc"
	"github.com/wfunc/turtlesoup/services"
	"github.com/wfunc/turtlesoup/session"
	"github.com/wfunc/turtlesoup/state"
	"github.com/wfunc/turtlesoup/timer"
)

// ErrNotYourTurn 回合制约束。这是传输层的策略：房间存储本身
// 只要求血量大于0，轮不轮得到由这里把关。
var ErrNotYourTurn = errors.New("not your turn")

// GameServer 把 websocket 客户端动作翻译成房间操作的薄适配层。
// 游戏规则全部在 room 和 engine 包里，这里只做编解码、回合检查、
// 结束条件巡检和广播。
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	records        *services.GameRecordService
	rpcServer      *gamerpc.Server
	mon            *monitor.Monitor
	timers         *timer.TimerManager
	roomTTL        time.Duration
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, roomManager *room.Manager, records *services.GameRecordService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		roomManager:    roomManager,
		sessionManager: session.NewManager(),
		records:        records,
		mon:            mon,
		timers:         timer.NewTimerManager(),
		roomTTL:        cfg.Game.RoomTTL,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)

	// 初始化RPC服务器
	rpcServer, err := gamerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	netrpc.Register(gamerpc.NewRecordService(records))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	// 房间闲置回收与游戏时限巡检都由定时器驱动
	s.timers.AddTimer(time.Minute, 10*time.Minute, s.sweepRooms)
	s.timers.AddTimer(30*time.Second, 30*time.Second, s.checkTimeLimits)

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

// sweepRooms 回收闲置超过阈值的房间
func (s *GameServer) sweepRooms() {
	if removed := s.roomManager.Sweep(s.roomTTL); removed > 0 {
		logger.Log.Infof("回收了 %d 个闲置房间", removed)
	}
	if s.mon != nil {
		s.mon.SetActiveRooms(s.roomManager.RoomCount())
	}
}

// checkTimeLimits 时限到点的对局由服务器出面结束，
// 房间存储自己从不主动终局
func (s *GameServer) checkTimeLimits() {
	now := time.Now()
	for _, r := range s.roomManager.Rooms() {
		if r.Status() == state.StatusPlaying && r.TimeExpired(now) {
			s.finishGame(r, "", "时间到，无人猜中汤底")
		}
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

// 客户端需按此间隔发送心跳，静默两个间隔的连接被断开
const heartbeatInterval = 30 * time.Second

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.mon != nil {
		s.mon.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		if s.mon != nil {
			s.mon.DecOnlinePlayers()
		}
		if sess.RoomID != "" && sess.PlayerID != "" {
			if _, err := s.roomManager.LeaveRoom(sess.RoomID, sess.PlayerID); err == nil {
				s.broadcastState(sess.RoomID)
			}
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgTypeToggleReady:
		s.handleToggleReady(sess)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess)
	case network.MsgTypeQuestion:
		s.handleQuestion(sess, packet)
	case network.MsgTypeGuess:
		s.handleGuess(sess, packet)
	case network.MsgTypeHint:
		s.handleHint(sess)
	case network.MsgTypeRoomState:
		s.handleRoomState(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// --- 请求/响应载荷 ---

type createRoomRequest struct {
	HostName   string `json:"host_name"`
	MaxPlayers int    `json:"max_players"`
	TimeLimit  int    `json:"time_limit"`
}

type joinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type textRequest struct {
	Text string `json:"text"`
}

type roomReply struct {
	RoomID string               `json:"room_id"`
	Player *models.Player       `json:"player"`
	State  *models.RoomSnapshot `json:"state"`
}

type actionReply struct {
	PlayerMessage models.ChatMessage   `json:"player_message"`
	EngineMessage models.ChatMessage   `json:"engine_message"`
	Answer        *models.Answer       `json:"answer,omitempty"`
	Guess         *models.GuessResult  `json:"guess,omitempty"`
	Hint          string               `json:"hint,omitempty"`
	Health        int                  `json:"health"`
	NextTurn      string               `json:"next_turn"`
	State         *models.RoomSnapshot `json:"state"`
}

type gameEndReply struct {
	WinnerID  string `json:"winner_id"`
	Reason    string `json:"reason"`
	FullStory string `json:"full_story"`
}

type chatReply struct {
	Message string `json:"message"`
}

type errorReply struct {
	Message string `json:"message"`
}

// --- 大厅指令 ---

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req createRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.HostName == "" {
		s.sendError(sess, "创建房间参数不合法")
		return
	}

	r, host := s.roomManager.CreateRoom(req.HostName, req.MaxPlayers, req.TimeLimit)
	sess.RoomID = r.ID
	sess.PlayerID = host.ID
	sess.PlayerName = host.Name

	if s.mon != nil {
		s.mon.SetActiveRooms(s.roomManager.RoomCount())
	}
	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.ID)

	s.reply(sess, network.MsgTypeCreateRoom, roomReply{RoomID: r.ID, Player: host, State: r.Snapshot()})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req joinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "加入房间参数不合法")
		return
	}

	player, err := s.roomManager.JoinRoom(req.RoomID, req.PlayerName)
	if err != nil {
		s.sendTypedError(sess, err)
		return
	}

	sess.RoomID = req.RoomID
	sess.PlayerID = player.ID
	sess.PlayerName = player.Name

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), req.RoomID)

	r, _ := s.roomManager.GetRoom(req.RoomID)
	s.reply(sess, network.MsgTypeJoinRoom, roomReply{RoomID: req.RoomID, Player: player, State: r.Snapshot()})
	s.broadcastState(req.RoomID)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	if sess.RoomID == "" {
		return
	}
	roomID := sess.RoomID
	if _, err := s.roomManager.LeaveRoom(roomID, sess.PlayerID); err != nil {
		s.sendTypedError(sess, err)
		return
	}
	sess.RoomID = ""
	sess.PlayerID = ""
	s.broadcastState(roomID)
	if s.mon != nil {
		s.mon.SetActiveRooms(s.roomManager.RoomCount())
	}
}

func (s *GameServer) handleToggleReady(sess *session.Session) {
	r, ok := s.sessionRoom(sess)
	if !ok {
		return
	}
	if err := r.ToggleReady(sess.PlayerID); err != nil {
		s.sendTypedError(sess, err)
		return
	}
	s.broadcastState(r.ID)
}

func (s *GameServer) handleStartGame(sess *session.Session) {
	r, ok := s.sessionRoom(sess)
	if !ok {
		return
	}

	// 只有房主能开局
	snap := r.Snapshot()
	isHost := false
	for _, p := range snap.Players {
		if p.ID == sess.PlayerID && p.IsHost {
			isHost = true
			break
		}
	}
	if !isHost {
		s.sendError(sess, "只有房主可以开始游戏")
		return
	}

	if err := r.Start(); err != nil {
		s.sendTypedError(sess, err)
		return
	}

	data, _ := json.Marshal(r.Snapshot())
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeGameStart, data)
}

// --- 游戏中指令 ---

func (s *GameServer) handleQuestion(sess *session.Session, packet *network.Packet) {
	var req textRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Text == "" {
		s.sendError(sess, "提问不能为空")
		return
	}

	s.runAction(sess, func(ctx context.Context, r *room.Room) (*room.ActionResult, error) {
		return r.SubmitQuestion(ctx, sess.PlayerID, req.Text)
	}, network.MsgTypeQuestion, func() {
		if s.mon != nil {
			s.mon.IncQuestions()
		}
	})
}

func (s *GameServer) handleGuess(sess *session.Session, packet *network.Packet) {
	var req textRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Text == "" {
		s.sendError(sess, "猜测不能为空")
		return
	}

	s.runAction(sess, func(ctx context.Context, r *room.Room) (*room.ActionResult, error) {
		return r.SubmitGuess(ctx, sess.PlayerID, req.Text)
	}, network.MsgTypeGuess, func() {
		if s.mon != nil {
			s.mon.IncGuesses()
		}
	})
}

func (s *GameServer) handleHint(sess *session.Session) {
	s.runAction(sess, func(ctx context.Context, r *room.Room) (*room.ActionResult, error) {
		return r.RequestHint(ctx, sess.PlayerID)
	}, network.MsgTypeHint, func() {
		if s.mon != nil {
			s.mon.IncHints()
		}
	})
}

func (s *GameServer) handleRoomState(sess *session.Session) {
	r, ok := s.sessionRoom(sess)
	if !ok {
		return
	}
	s.reply(sess, network.MsgTypeRoomState, r.Snapshot())
}

// runAction 执行一次耗血操作：回合检查 -> 房间复合操作 -> 轮转 ->
// 广播 -> 结束条件巡检。三种操作只有载荷不同，流程完全一致。
func (s *GameServer) runAction(sess *session.Session, action func(context.Context, *room.Room) (*room.ActionResult, error), msgID uint16, count func()) {
	r, ok := s.sessionRoom(sess)
	if !ok {
		return
	}

	if turn := r.Snapshot().CurrentTurn; turn != "" && turn != sess.PlayerID {
		s.sendTypedError(sess, ErrNotYourTurn)
		return
	}

	begin := time.Now()
	result, err := action(context.Background(), r)
	if err != nil {
		s.sendTypedError(sess, err)
		return
	}
	if s.mon != nil {
		s.mon.ObserveEngineLatency(time.Since(begin))
	}
	count()

	nextTurn := r.AdvanceTurn()

	reply := actionReply{
		PlayerMessage: result.PlayerMessage,
		EngineMessage: result.EngineMessage,
		Answer:        result.Answer,
		Guess:         result.Guess,
		Hint:          result.Hint,
		Health:        result.Health,
		NextTurn:      nextTurn,
		State:         r.Snapshot(),
	}
	data, _ := json.Marshal(reply)
	s.broadcaster.BroadcastToRoom(r.ID, msgID, data)

	// 结束条件都由传输层判定
	if result.Guess != nil && result.Guess.IsCorrect {
		s.finishGame(r, sess.PlayerID, result.Guess.FullStory)
		return
	}
	if r.AllEliminated() {
		s.finishGame(r, "", "所有玩家血量耗尽")
	}
}

// finishGame 终局：置终态、落库、广播结果
func (s *GameServer) finishGame(r *room.Room, winnerID, reason string) {
	if err := r.End(); err != nil {
		return
	}

	record := r.Record(winnerID)
	s.records.SaveFinishedGame(record)
	s.records.SaveRoomState(r.Snapshot())

	reveal := ""
	if st := r.Story(); st != nil {
		reveal = st.Solution
	}
	data, _ := json.Marshal(gameEndReply{WinnerID: winnerID, Reason: reason, FullStory: reveal})
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeGameEnd, data)

	if winnerID != "" {
		personal, _ := json.Marshal(chatReply{Message: "你猜中了汤底！"})
		s.broadcaster.BroadcastToPlayers([]string{winnerID}, network.MsgTypeChat, personal)
	}

	logger.Log.Infof("房间 %s 游戏结束 winner=%q reason=%s", r.ID, winnerID, reason)
}

// --- 工具 ---

func (s *GameServer) sessionRoom(sess *session.Session) (*room.Room, bool) {
	if sess.RoomID == "" {
		s.sendError(sess, "尚未加入任何房间")
		return nil, false
	}
	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		s.sendTypedError(sess, room.ErrRoomNotFound)
		return nil, false
	}
	return r, true
}

func (s *GameServer) broadcastState(roomID string) {
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		return
	}
	data, _ := json.Marshal(r.Snapshot())
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeRoomState, data)
}

func (s *GameServer) reply(sess *session.Session, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("marshal reply failed: %v", err)
		return
	}
	sess.Send(msgID, data)
}

// sendTypedError 把类型化失败翻译成用户可见的短消息
func (s *GameServer) sendTypedError(sess *session.Session, err error) {
	msg := "操作失败"
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		msg = "房间不存在"
	case errors.Is(err, room.ErrRoomFull):
		msg = "房间已满"
	case errors.Is(err, room.ErrGameStarted):
		msg = "游戏已经开始"
	case errors.Is(err, room.ErrPlayerNotFound):
		msg = "玩家不在房间里"
	case errors.Is(err, room.ErrPlayerEliminated):
		msg = "你的血量已耗尽"
	case errors.Is(err, room.ErrInvalidState):
		msg = "当前状态不允许此操作"
	case errors.Is(err, ErrNotYourTurn):
		msg = "还没轮到你"
	}
	s.sendError(sess, msg)
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(errorReply{Message: message})
	sess.Send(network.MsgTypeError, data)
}
