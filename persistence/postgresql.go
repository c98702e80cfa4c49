// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// pq unique_violation
const uniqueViolation = "23505"

// PostgreSQL 数据库实现
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) UNIQUE NOT NULL,
            num_players INTEGER NOT NULL,
            seed BIGINT NOT NULL,
            scenario JSONB NOT NULL,
            document JSONB NOT NULL,
            winner VARCHAR(16) NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS moves (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL REFERENCES matches(room_id),
            seq INTEGER NOT NULL,
            player_id VARCHAR(16) NOT NULL,
            move VARCHAR(32) NOT NULL,
            payload JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (room_id, seq)
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_matches_created_at ON matches(created_at);
        CREATE INDEX IF NOT EXISTS idx_moves_room_id ON moves(room_id);
    `)

	return err
}

func (p *PostgreSQL) CreateMatch(rec *MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO matches (room_id, num_players, seed, scenario, document, winner)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := p.db.ExecContext(ctx, query,
		rec.RoomID, rec.NumPlayers, rec.Seed, []byte(rec.Scenario), []byte(rec.Document), rec.Winner)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateMatch
	}
	return err
}

// AppendMove 在事务中写入走子并更新对局文档
func (p *PostgreSQL) AppendMove(mv *MoveRecord, document []byte, winner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// lock the match row so concurrent appends serialize on it
	var id, last int
	err = tx.QueryRowContext(ctx, `SELECT id FROM matches WHERE room_id = $1 FOR UPDATE`, mv.RoomID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRecordNotFound
		}
		return err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM moves WHERE room_id = $1`, mv.RoomID).Scan(&last); err != nil {
		return err
	}
	if mv.Seq != last+1 {
		return ErrMoveOutOfOrder
	}

	var payload interface{}
	if len(mv.Payload) > 0 {
		payload = []byte(mv.Payload)
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO moves (room_id, seq, player_id, move, payload)
        VALUES ($1, $2, $3, $4, $5)
    `, mv.RoomID, mv.Seq, mv.PlayerID, mv.Move, payload)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE matches SET document = $2, winner = $3, updated_at = CURRENT_TIMESTAMP
        WHERE room_id = $1
    `, mv.RoomID, document, winner)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgreSQL) LoadMatch(roomID string) (*MatchRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := MatchRecord{RoomID: roomID}
	query := `
        SELECT num_players, seed, scenario, document, winner, created_at, updated_at
        FROM matches WHERE room_id = $1
    `
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(
		&rec.NumPlayers, &rec.Seed, &rec.Scenario, &rec.Document, &rec.Winner, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (p *PostgreSQL) LoadMoves(roomID string) ([]MoveRecord, error) {
	if _, err := p.LoadMatch(roomID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT seq, player_id, move, payload, created_at
        FROM moves WHERE room_id = $1 ORDER BY seq
    `, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		mv := MoveRecord{RoomID: roomID}
		if err := rows.Scan(&mv.Seq, &mv.PlayerID, &mv.Move, &mv.Payload, &mv.CreatedAt); err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return moves, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
