// Package runstore persists completed pipeline invocations for later
// playback/history lookup. It is a supplementary, downstream-of-the-core
// component (§1 "Out of scope... the SQLite-backed history store" —
// history IS out of the core's scope, but the spec's explicit Output C and
// run-reproducibility story still needs a concrete store somewhere in a
// complete repo; this package is that home, grounded on
// pkg/acousticdna/storage/sqlite.go's GORM+glebarez/sqlite shape). The core
// pipeline package never imports this package.
package runstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	customlogger "github.com/himanishpuri/beatforge/pkg/logger"
)

const DefaultDBFile = "beatforge.sqlite3"
const errDBClientNil = "db client is nil"

// Run is one persisted pipeline invocation: enough to reproduce or inspect
// it later without re-running analysis.
type Run struct {
	ID                  string `gorm:"primaryKey;type:varchar(36)"`
	ParametersJSON      string
	DecisionRecordsJSON string
	MidiPath            string
	WavPath             string
	BPM                 float64
	TempoFallback       bool
	EventsDropped       int
	CreatedAt           time.Time
}

type DBClient struct {
	DB *gorm.DB
}

func NewDBClient(dbPath string) (*DBClient, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &DBClient{DB: db}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *DBClient) SaveRun(run Run) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Create(&run).Error
}

func (c *DBClient) GetRun(id string) (*Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run Run
	if err := c.DB.Where("id = ?", id).First(&run).Error; err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

func (c *DBClient) ListRuns(limit int) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var runs []Run
	q := c.DB.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (c *DBClient) DeleteRun(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Where("id = ?", id).Delete(&Run{}).Error
}

// MustNewDBClient opens the default run store or panics, matching the
// teacher's MustNewDBClient convenience wrapper.
func MustNewDBClient(dbPath string) *DBClient {
	cli, err := NewDBClient(dbPath)
	if err != nil {
		customlogger.GetLogger().Error("failed to open run store: %v", err)
		panic(err)
	}
	return cli
}
