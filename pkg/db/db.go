package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	constant "liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// Models is everything the store migrates, in dependency order.
var Models = []any{
	&models.Device{},
	&models.Telemetry{},
	&models.FirmwareUpdate{},
}

var sqlitePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// Open connects, pins sqlite to a single connection and migrates the schema.
func Open(dialector gorm.Dialector) (*DB, error) {
	logger := constant.GetLogger()

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dialector.Name(), err)
	}

	// one writer at a time, device workers queue here instead of failing
	// with "database is locked"
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if err := conn.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := conn.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Database ready",
		zap.String("dialector", dialector.Name()),
		zap.Int("models", len(Models)))

	return &DB{Conn: conn}, nil
}

// GetInstance opens the process wide store once. Later calls return the same
// handle whatever dialector they pass.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		if instance, err = Open(dialector); err != nil {
			log.Fatal("Failed to open database: ", err)
		}
	})
	return instance
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UseDialector picks the store for a configured db type, "memory" or "file".
func UseDialector(dbType string) gorm.Dialector {
	if dbType == "memory" {
		return UseMemorySqliteDialector()
	}
	return UseSqliteDialector()
}

// UseSqliteDialector opens IOT_DB_PATH, aquapond.db when unset.
func UseSqliteDialector() gorm.Dialector {
	dbPath, found := os.LookupEnv(constant.EnvKeyIOTDbPath)
	if !found || dbPath == "" {
		dbPath = "aquapond.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}
