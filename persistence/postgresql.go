// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/turtlesoup/models"
)

// PostgreSQL 不经ORM的 database/sql 实现，行为与 GormPostgreSQL 一致
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 对局记录表
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) NOT NULL,
            story_id VARCHAR(255) NOT NULL,
            winner VARCHAR(255) NOT NULL DEFAULT '',
            players JSONB NOT NULL,
            questions INT NOT NULL DEFAULT 0,
            guesses INT NOT NULL DEFAULT 0,
            hints INT NOT NULL DEFAULT 0,
            duration INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 房间状态表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS room_states (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) UNIQUE NOT NULL,
            story_id VARCHAR(255) NOT NULL,
            status VARCHAR(50) NOT NULL,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
        CREATE INDEX IF NOT EXISTS idx_room_states_room_id ON room_states(room_id);
    `)

	return err
}

// SaveGameRecord 保存对局记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	playersJSON, err := json.Marshal(playerOutcomeMap(record.Players))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, story_id, winner, players, questions, guesses, hints, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID, record.StoryID, record.Winner, playersJSON,
		record.Questions, record.Guesses, record.Hints, int(record.Duration.Seconds()))
	return err
}

// SaveRoomState 保存房间状态
func (p *PostgreSQL) SaveRoomState(roomID, storyID, status string, players map[string]interface{}) error {
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 使用 UPSERT 操作 (PostgreSQL 9.5+)
	query := `
        INSERT INTO room_states (room_id, story_id, status, players)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (room_id)
        DO UPDATE SET status = $3, players = $4, updated_at = CURRENT_TIMESTAMP
    `

	_, err = p.db.ExecContext(ctx, query, roomID, storyID, status, playersJSON)
	return err
}

// LoadRoomState 加载房间状态
func (p *PostgreSQL) LoadRoomState(roomID string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := `SELECT players FROM room_states WHERE room_id = $1`
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var players map[string]interface{}
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// RecentRecords 最近的对局记录
func (p *PostgreSQL) RecentRecords(limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT room_id, story_id, winner, players, questions, guesses, hints, duration, created_at
        FROM game_records
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var record models.GameRecord
		var playersJSON []byte
		var duration int
		if err := rows.Scan(&record.RoomID, &record.StoryID, &record.Winner, &playersJSON,
			&record.Questions, &record.Guesses, &record.Hints, &duration, &record.CreatedAt); err != nil {
			return nil, err
		}

		var players map[string]interface{}
		if err := json.Unmarshal(playersJSON, &players); err == nil {
			record.Players = outcomesFromMap(players)
		}
		record.Duration = time.Duration(duration) * time.Second
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRoomStats 汇总一个房间的历史对局统计
func (p *PostgreSQL) GetRoomStats(roomID string) (*models.RoomStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN winner <> '' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN winner = '' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(questions), 0),
            COALESCE(SUM(guesses), 0),
            COALESCE(SUM(hints), 0)
        FROM game_records
        WHERE room_id = $1
    `

	var stats models.RoomStats
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(
		&stats.TotalGames, &stats.Solved, &stats.Unsolved,
		&stats.Questions, &stats.Guesses, &stats.Hints)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
