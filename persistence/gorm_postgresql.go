// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
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

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

type MatchModel struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"uniqueIndex;not null"`
	NumPlayers int    `gorm:"not null"`
	Seed       int64  `gorm:"not null"`
	Scenario   []byte `gorm:"type:jsonb;not null"`
	Document   []byte `gorm:"type:jsonb;not null"`
	Winner     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (MatchModel) TableName() string { return "matches" }

type MoveModel struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"uniqueIndex:idx_moves_room_seq;not null"`
	Seq       int    `gorm:"uniqueIndex:idx_moves_room_seq;not null"`
	PlayerID  string `gorm:"not null"`
	Move      string `gorm:"not null"`
	Payload   []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (MoveModel) TableName() string { return "moves" }

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&MatchModel{},
		&MoveModel{},
	)
}

func (p *GormPostgreSQL) CreateMatch(rec *MatchRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MatchModel{}).Where("room_id = ?", rec.RoomID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateMatch
		}
		return tx.Create(&MatchModel{
			RoomID:     rec.RoomID,
			NumPlayers: rec.NumPlayers,
			Seed:       rec.Seed,
			Scenario:   rec.Scenario,
			Document:   rec.Document,
			Winner:     rec.Winner,
		}).Error
	})
}

// AppendMove 在同一事务中写入走子并更新对局文档
func (p *GormPostgreSQL) AppendMove(mv *MoveRecord, document []byte, winner string) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var match MatchModel
		if err := tx.Where("room_id = ?", mv.RoomID).First(&match).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		var last int64
		if err := tx.Model(&MoveModel{}).Where("room_id = ?", mv.RoomID).Count(&last).Error; err != nil {
			return err
		}
		if int64(mv.Seq) != last+1 {
			return ErrMoveOutOfOrder
		}

		if err := tx.Create(&MoveModel{
			RoomID:   mv.RoomID,
			Seq:      mv.Seq,
			PlayerID: mv.PlayerID,
			Move:     mv.Move,
			Payload:  mv.Payload,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&match).Updates(map[string]interface{}{
			"document":   document,
			"winner":     winner,
			"updated_at": time.Now(),
		}).Error
	})
}

func (p *GormPostgreSQL) LoadMatch(roomID string) (*MatchRecord, error) {
	var match MatchModel
	if err := p.db.Where("room_id = ?", roomID).First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &MatchRecord{
		RoomID:     match.RoomID,
		NumPlayers: match.NumPlayers,
		Seed:       match.Seed,
		Scenario:   match.Scenario,
		Document:   match.Document,
		Winner:     match.Winner,
		CreatedAt:  match.CreatedAt,
		UpdatedAt:  match.UpdatedAt,
	}, nil
}

func (p *GormPostgreSQL) LoadMoves(roomID string) ([]MoveRecord, error) {
	if _, err := p.LoadMatch(roomID); err != nil {
		return nil, err
	}

	var rows []MoveModel
	if err := p.db.Where("room_id = ?", roomID).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	moves := make([]MoveRecord, 0, len(rows))
	for _, row := range rows {
		moves = append(moves, MoveRecord{
			RoomID:    row.RoomID,
			Seq:       row.Seq,
			PlayerID:  row.PlayerID,
			Move:      row.Move,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return moves, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
