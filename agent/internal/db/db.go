package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Init opens (and creates) the agent's SQLite database and migrates it.
func Init(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := gdb.AutoMigrate(&Execution{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

// Ledger is the execution log used to make command handling idempotent.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger { return &Ledger{db: db} }

// Lookup returns the recorded execution of commandID, if any.
func (l *Ledger) Lookup(commandID string) (*Execution, bool, error) {
	var e Execution
	err := l.db.Where("command_id = ?", commandID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

func (l *Ledger) Record(e Execution) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}
	return l.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "command_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"stdout":      e.Stdout,
			"stderr":      e.Stderr,
			"return_code": e.ReturnCode,
			"executed_at": e.ExecutedAt,
		}),
	}).Create(&e).Error
}

func (l *Ledger) MarkReported(commandID string) error {
	now := time.Now()
	return l.db.Model(&Execution{}).Where("command_id = ?", commandID).
		Updates(map[string]any{"reported": true, "reported_at": now}).Error
}

// Prune drops reported executions older than before. Unreported ones are
// kept so they can still be reported.
func (l *Ledger) Prune(before time.Time) (int64, error) {
	res := l.db.Where("reported = ? AND executed_at < ?", true, before).Delete(&Execution{})
	return res.RowsAffected, res.Error
}
