package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
	"github.com/chenweiyi/roleverse/backend/internal/model/user"
)

// New 打开连接池并完成 schema 迁移。
func New(ctx context.Context, dsn string, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get mysql sql db failed: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetMaxOpenConns(maxConns * 5)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping mysql failed: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&user.User{},
		&user.Token{},
		&catalog.Character{},
		&catalog.Scene{},
		&chat.Session{},
		&chat.Message{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema failed: %w", err)
	}

	return db, nil
}
