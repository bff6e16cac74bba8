package db

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	Db   *gorm.DB                                                   // GORM database instance
	Path = filepath.Join(os.Getenv("HOME"), ".cwactl/inventory.db") // Default database path
)

// InitDB opens the database at Path, creating its directory and tables as needed.
func InitDB() error {
	if err := createDBDirectory(); err != nil {
		return err
	}

	conn, err := Open(Path)
	if err != nil {
		return err
	}
	Db = conn

	log.Info().Str("path", Path).Msg("Database initialized successfully")
	return nil
}

// Open opens and migrates the database at path without touching the global
// connection. MemoryPath gives a fresh database limited to one connection.
func Open(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database")
		return nil, err
	}

	if path == MemoryPath {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// Every pooled connection would otherwise see its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrateTables(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func createDBDirectory() error {
	dir := filepath.Dir(Path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return err
		}
	}
	return nil
}

func migrateTables(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&Computer{}, &SyncState{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return err
	}
	return nil
}

// gormLogger is silent unless debug logging is on.
func gormLogger() logger.Interface {
	if zerolog.GlobalLevel() == zerolog.Disabled {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.Default.LogMode(logger.Info)
}

// GetDB returns the global connection, nil before InitDB.
func GetDB() *gorm.DB { return Db }

// CloseDB closes the global connection. It is a no-op before InitDB.
func CloseDB() error {
	if Db == nil {
		return nil
	}
	sqlDB, err := Db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}
