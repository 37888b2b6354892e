// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/turtlesoup/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormRoomState{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存对局记录，记录和玩家结果在同一事务里写入
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormGameRecord{
			RoomID:    record.RoomID,
			StoryID:   record.StoryID,
			Winner:    record.Winner,
			Players:   playerOutcomeMap(record.Players),
			Questions: record.Questions,
			Guesses:   record.Guesses,
			Hints:     record.Hints,
			Duration:  int(record.Duration.Seconds()),
		}
		return tx.Create(&row).Error
	})
}

// SaveRoomState 保存房间状态
func (p *GormPostgreSQL) SaveRoomState(roomID, storyID, status string, players map[string]interface{}) error {
	var row models.GormRoomState
	result := p.db.Where("room_id = ?", roomID).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = models.GormRoomState{
			RoomID:  roomID,
			StoryID: storyID,
			Status:  status,
			Players: players,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.Status = status
	row.Players = players
	row.UpdatedAt = time.Now()
	return p.db.Save(&row).Error
}

// LoadRoomState 加载房间状态
func (p *GormPostgreSQL) LoadRoomState(roomID string) (map[string]interface{}, error) {
	var row models.GormRoomState
	if err := p.db.Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return row.Players, nil
}

// RecentRecords 最近的对局记录，按结束时间倒序
func (p *GormPostgreSQL) RecentRecords(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	if err := p.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.GameRecord{
			RoomID:    row.RoomID,
			StoryID:   row.StoryID,
			Winner:    row.Winner,
			Players:   outcomesFromMap(row.Players),
			Questions: row.Questions,
			Guesses:   row.Guesses,
			Hints:     row.Hints,
			Duration:  time.Duration(row.Duration) * time.Second,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}

// GetRoomStats 汇总一个房间的历史对局统计
func (p *GormPostgreSQL) GetRoomStats(roomID string) (*models.RoomStats, error) {
	var stats models.RoomStats

	err := p.db.Raw(`
        SELECT
            COUNT(*) as total_games,
            SUM(CASE WHEN winner <> '' THEN 1 ELSE 0 END) as solved,
            SUM(CASE WHEN winner = '' THEN 1 ELSE 0 END) as unsolved,
            COALESCE(SUM(questions), 0) as questions,
            COALESCE(SUM(guesses), 0) as guesses,
            COALESCE(SUM(hints), 0) as hints
        FROM gorm_game_records
        WHERE room_id = ? AND deleted_at IS NULL`,
		roomID,
	).Scan(&stats).Error

	return &stats, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// playerOutcomeMap 玩家结果转成 jsonb 结构：playerID -> 结果
func playerOutcomeMap(outcomes []models.PlayerOutcome) map[string]interface{} {
	result := make(map[string]interface{}, len(outcomes))
	for _, o := range outcomes {
		result[o.PlayerID] = map[string]interface{}{
			"name":    o.Name,
			"health":  o.Health,
			"outcome": o.Outcome,
		}
	}
	return result
}

func outcomesFromMap(players map[string]interface{}) []models.PlayerOutcome {
	outcomes := make([]models.PlayerOutcome, 0, len(players))
	for playerID, raw := range players {
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var o models.PlayerOutcome
		if err := json.Unmarshal(data, &o); err != nil {
			continue
		}
		o.PlayerID = playerID
		outcomes = append(outcomes, o)
	}
	return outcomes
}
