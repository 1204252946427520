// Package archive keeps a best-effort SQLite index of alert-save artifacts,
// so evidence files written by the automation can be located after a
// restart. Index writes are advisory: a failed insert is logged and
// forgotten, exactly like a failed file write.
package archive

import (
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SaveArtifact is one indexed alert-save attempt.
type SaveArtifact struct {
	gorm.Model

	SavedAt   time.Time `gorm:"index" json:"saved_at"`
	File      string    `gorm:"not null" json:"file"`
	Category  string    `gorm:"index" json:"alert_type"`
	DeviceMAC string    `gorm:"index" json:"device_mac"`
	Device    string    `json:"device"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// Index wraps the GORM handle. A nil *Index is valid and records nothing,
// which keeps the automation usable without a database in tests.
type Index struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite index at path and runs AutoMigrate.
func Open(path string) (*Index, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening artifact index: %w", err)
	}
	if err := db.AutoMigrate(&SaveArtifact{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log.Printf("[archive] opened %s", path)
	return &Index{db: db}, nil
}

// Record indexes one save attempt. Errors are swallowed: the index is a
// convenience, never a gate on the alerting pipeline.
func (ix *Index) Record(a SaveArtifact) {
	if ix == nil || ix.db == nil {
		return
	}
	if err := ix.db.Create(&a).Error; err != nil {
		log.Printf("[archive] index write failed: %v", err)
	}
}

// Recent returns the newest n artifacts.
func (ix *Index) Recent(n int) ([]SaveArtifact, error) {
	if ix == nil || ix.db == nil {
		return nil, nil
	}
	var out []SaveArtifact
	err := ix.db.Order("saved_at desc").Limit(n).Find(&out).Error
	return out, err
}
