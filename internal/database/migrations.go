package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veridianip/veridian/backend/internal/submissions"
)

const migrationNormalizePaymentStatus = "2026-06-11_normalize_payment_status"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizePaymentStatus, apply: normalizePaymentStatus},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Early builds stored payment status in lowercase; the enum is capitalized.
func normalizePaymentStatus(db *gorm.DB) error {
	if err := db.Model(&submissions.Submission{}).
		Where("payment_status = ?", "paid").
		Update("payment_status", submissions.PaymentPaid).Error; err != nil {
		return err
	}
	return db.Model(&submissions.Submission{}).
		Where("payment_status = ?", "unpaid").
		Update("payment_status", submissions.PaymentUnpaid).Error
}
