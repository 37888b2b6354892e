package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RecordService 通过 net/rpc 暴露的运维查询接口
type RecordService struct {
	records *services.GameRecordService
}

// NewRecordService creates a new RecordService.
func NewRecordService(records *services.GameRecordService) *RecordService {
	return &RecordService{records: records}
}

type RecentRecordsArgs struct {
	Limit int
}

type RecentRecordsReply struct {
	Records []models.GameRecord
}

// GetRecentRecords 查询最近结束的对局
func (rs *RecordService) GetRecentRecords(args *RecentRecordsArgs, reply *RecentRecordsReply) error {
	records, err := rs.records.RecentRecords(args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type RoomStatsArgs struct {
	RoomID string
}

type RoomStatsReply struct {
	Stats *models.RoomStats
}

// GetRoomStats 查询某个房间号的历史统计
func (rs *RecordService) GetRoomStats(args *RoomStatsArgs, reply *RoomStatsReply) error {
	stats, err := rs.records.RoomStats(args.RoomID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type RoomStateArgs struct {
	RoomID string
}

type RoomStateReply struct {
	Players map[string]interface{}
}

// GetRoomState 读取终局时落库的玩家状态，用于事后排查
func (rs *RecordService) GetRoomState(args *RoomStateArgs, reply *RoomStateReply) error {
	players, err := rs.records.RoomState(args.RoomID)
	if err != nil {
		return err
	}
	reply.Players = players
	return nil
}
