package store

import (
	"time"

	"gorm.io/datatypes"
	"irisplate/pkg/domain"
)

// GORM models used for persistence.
type EquipmentModel struct {
	Manufacturer     string `gorm:"primaryKey"`
	Model            string `gorm:"primaryKey"`
	SerialNumber     string `gorm:"primaryKey"`
	EquipmentName    string
	InstallationDate string
	LastUpdated      time.Time `gorm:"not null"`
}

func (EquipmentModel) TableName() string { return "equipment_records" }

type ExtractionLogModel struct {
	ID           string `gorm:"primaryKey"`
	ImageSHA256  string `gorm:"index;not null"`
	MIMEType     string
	DocumentText string
	Entities     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null;index"`
}

func (ExtractionLogModel) TableName() string { return "extraction_logs" }

func equipmentToModel(info domain.EquipmentInfo, updated time.Time) EquipmentModel {
	return EquipmentModel{
		Manufacturer:     info.Manufacturer,
		Model:            info.Model,
		SerialNumber:     info.SerialNumber,
		EquipmentName:    info.EquipmentName,
		InstallationDate: info.InstallationDate,
		LastUpdated:      updated,
	}
}

func equipmentFromModel(m EquipmentModel) domain.EquipmentRecord {
	return domain.EquipmentRecord{
		Manufacturer:     m.Manufacturer,
		Model:            m.Model,
		SerialNumber:     m.SerialNumber,
		EquipmentName:    m.EquipmentName,
		InstallationDate: m.InstallationDate,
		LastUpdated:      m.LastUpdated,
	}
}

func extractionToModel(entry domain.ExtractionLog) ExtractionLogModel {
	return ExtractionLogModel{
		ID:           entry.ID,
		ImageSHA256:  entry.ImageSHA256,
		MIMEType:     entry.MIMEType,
		DocumentText: entry.DocumentText,
		Entities:     datatypes.JSON(entry.Entities),
		CreatedAt:    entry.CreatedAt,
	}
}

func extractionFromModel(m ExtractionLogModel) domain.ExtractionLog {
	return domain.ExtractionLog{
		ID:           m.ID,
		ImageSHA256:  m.ImageSHA256,
		MIMEType:     m.MIMEType,
		DocumentText: m.DocumentText,
		Entities:     []byte(m.Entities),
		CreatedAt:    m.CreatedAt,
	}
}
