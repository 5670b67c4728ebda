package store

import (
	"fmt"
	"strings"

	"irisplate/pkg/domain"
)

// Store defines persistence operations for equipment records and the
// extraction audit trail. Exactly one record exists per
// (manufacturer, model, serial_number) tuple; Upsert enforces that.
type Store interface {
	// Upsert validates the composite key, then updates the existing record
	// for that key or inserts a new one atomically. LastUpdated is set by
	// the store on every write.
	Upsert(info domain.EquipmentInfo) (domain.EquipmentRecord, error)

	// Query returns records matching every supplied filter field exactly.
	// An empty filter returns all records. Order is store-native but stable
	// for a given store state.
	Query(filter domain.QueryFilter) ([]domain.EquipmentRecord, error)

	// AppendExtraction records one pipeline run for auditing.
	AppendExtraction(entry domain.ExtractionLog) error

	// ListExtractions returns the most recent audit entries, newest first.
	ListExtractions(limit int) ([]domain.ExtractionLog, error)
}

// ValidationError reports composite-key fields missing at persistence time.
// The offending info rides along so callers can show the partial extraction
// instead of losing the OCR result.
type ValidationError struct {
	Missing []string
	Info    domain.EquipmentInfo
}

func (e *ValidationError) Error() string {
	return "missing required key fields: " + strings.Join(e.Missing, ", ")
}

// ValidateKey checks the composite key before any store access.
func ValidateKey(info domain.EquipmentInfo) error {
	var missing []string
	if info.Manufacturer == "" {
		missing = append(missing, "manufacturer")
	}
	if info.Model == "" {
		missing = append(missing, "model")
	}
	if info.SerialNumber == "" {
		missing = append(missing, "serial_number")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing, Info: info}
	}
	return nil
}

// DefaultExtractionLimit caps audit listings when callers pass no limit.
const DefaultExtractionLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultExtractionLimit
	}
	return limit
}

func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
