package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/YHTerrance/UniFrames/config"
	"github.com/YHTerrance/UniFrames/model"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is what the rest of the application needs from the database layer
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	GetDB() *gorm.DB
}

type GORMStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

// StartGORM opens the configured database. Postgres is the production
// driver; sqlite reads the same univ.db file the frame index started in.
func StartGORM(cfg *config.Config, log *logrus.Logger) (*GORMStore, error) {
	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Database.SQLitePath + "?_foreign_keys=on")
	case "postgres":
		if cfg.Database.AutoCreate {
			if err := EnsureDatabaseExists(cfg.Database); err != nil {
				return nil, fmt.Errorf("failed to ensure database %q exists: %w", cfg.Database.Name, err)
			}
		}
		gormConfig.PrepareStmt = true
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		log.WithError(err).Error("Unable to connect to database with GORM")
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.WithField("driver", cfg.Database.Driver).Info("Successfully connected to database with GORM")

	return &GORMStore{db: db, log: log}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *logrus.Logger) *GORMStore {
	return &GORMStore{db: db, log: log}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("Running GORM AutoMigrate for all models...")

	if err := Migrate(s.db); err != nil {
		s.log.WithError(err).Error("Error running AutoMigrate")
		return err
	}

	s.log.Info("GORM AutoMigrate completed successfully!")
	return nil
}

// Migrate creates the tables and the case-insensitive name index
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.University{},
		&model.Frame{},
		&model.SyncRun{},
	)
	if err != nil {
		return err
	}

	// Canonical names are unique regardless of case.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_universities_name_lower ON universities (LOWER(name))",
	).Error
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("Closing GORM database connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services and handlers
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
