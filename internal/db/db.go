package db

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/models"
)

var conn *gorm.DB

func Init(path string) error {
	var err error
	conn, err = gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Link{},
		&models.ChannelPost{},
	); err != nil {
		log.Fatalf("auto-migrate failed: %v", err)
	}

	// Composite index that GORM doesn't auto-create from struct tags:
	// premium lookups filter on telegram_id + free_premium_expiry.
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_users_premium ON users(telegram_id, free_premium_expiry)")

	log.Println("database ready (sqlite)")
	return nil
}

func Conn() *gorm.DB {
	return conn
}
