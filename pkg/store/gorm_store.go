package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"irisplate/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&EquipmentModel{}, &ExtractionLogModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Upsert updates the record matching the composite key or inserts a new one.
// The read-modify-write runs inside one transaction with a row lock on the
// key, so concurrent upserts for the same equipment serialize instead of
// interleaving. The key fields of an existing record are never touched.
func (s *GormStore) Upsert(info domain.EquipmentInfo) (domain.EquipmentRecord, error) {
	if err := ValidateKey(info); err != nil {
		return domain.EquipmentRecord{}, err
	}
	result, err := s.upsertTx(info)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Two first-time writes raced: the locking read saw no row, the
		// insert hit the winner's. The row exists now, so retrying turns
		// this write into an update.
		result, err = s.upsertTx(info)
	}
	if err != nil {
		return domain.EquipmentRecord{}, wrapStoreErr("upsert equipment", err)
	}
	return equipmentFromModel(result), nil
}

func (s *GormStore) upsertTx(info domain.EquipmentInfo) (EquipmentModel, error) {
	var result EquipmentModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var existing EquipmentModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("manufacturer = ? AND model = ? AND serial_number = ?",
				info.Manufacturer, info.Model, info.SerialNumber).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&EquipmentModel{}).
				Where("manufacturer = ? AND model = ? AND serial_number = ?",
					info.Manufacturer, info.Model, info.SerialNumber).
				Updates(map[string]any{
					"equipment_name":    info.EquipmentName,
					"installation_date": info.InstallationDate,
					"last_updated":      now,
				}).Error; err != nil {
				return err
			}
			existing.EquipmentName = info.EquipmentName
			existing.InstallationDate = info.InstallationDate
			existing.LastUpdated = now
			result = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = equipmentToModel(info, now)
			return tx.Create(&result).Error
		default:
			return err
		}
	})
	return result, err
}

// Query returns records matching all supplied filter fields.
func (s *GormStore) Query(filter domain.QueryFilter) ([]domain.EquipmentRecord, error) {
	tx := s.db.Model(&EquipmentModel{}).
		Order("manufacturer ASC, model ASC, serial_number ASC")
	if filter.Manufacturer != "" {
		tx = tx.Where("manufacturer = ?", filter.Manufacturer)
	}
	if filter.Model != "" {
		tx = tx.Where("model = ?", filter.Model)
	}
	if filter.SerialNumber != "" {
		tx = tx.Where("serial_number = ?", filter.SerialNumber)
	}
	var models []EquipmentModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, wrapStoreErr("query equipment", err)
	}
	res := make([]domain.EquipmentRecord, 0, len(models))
	for _, m := range models {
		res = append(res, equipmentFromModel(m))
	}
	return res, nil
}

// AppendExtraction records one pipeline run.
func (s *GormStore) AppendExtraction(entry domain.ExtractionLog) error {
	model := extractionToModel(entry)
	if err := s.db.Create(&model).Error; err != nil {
		return wrapStoreErr("append extraction", err)
	}
	return nil
}

// ListExtractions returns recent audit entries, newest first.
func (s *GormStore) ListExtractions(limit int) ([]domain.ExtractionLog, error) {
	var models []ExtractionLogModel
	if err := s.db.Order("created_at DESC").Limit(normalizeLimit(limit)).Find(&models).Error; err != nil {
		return nil, wrapStoreErr("list extractions", err)
	}
	res := make([]domain.ExtractionLog, 0, len(models))
	for _, m := range models {
		res = append(res, extractionFromModel(m))
	}
	return res, nil
}
