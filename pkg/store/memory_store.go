package store

import (
	"sync"
	"time"

	"irisplate/pkg/domain"
)

type compositeKey struct {
	manufacturer string
	model        string
	serialNumber string
}

// MemoryStore keeps records in-process. Used by tests and by local runs
// without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[compositeKey]domain.EquipmentRecord
	order       []compositeKey
	extractions []domain.ExtractionLog
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[compositeKey]domain.EquipmentRecord),
	}
}

func keyOf(info domain.EquipmentInfo) compositeKey {
	return compositeKey{
		manufacturer: info.Manufacturer,
		model:        info.Model,
		serialNumber: info.SerialNumber,
	}
}

// Upsert updates or inserts the record for the composite key. The mutex
// serializes concurrent upserts on the same key.
func (m *MemoryStore) Upsert(info domain.EquipmentInfo) (domain.EquipmentRecord, error) {
	if err := ValidateKey(info); err != nil {
		return domain.EquipmentRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := keyOf(info)
	if _, exists := m.records[key]; !exists {
		m.order = append(m.order, key)
	}
	rec := domain.EquipmentRecord{
		EquipmentName:    info.EquipmentName,
		InstallationDate: info.InstallationDate,
		Manufacturer:     info.Manufacturer,
		Model:            info.Model,
		SerialNumber:     info.SerialNumber,
		LastUpdated:      time.Now().UTC(),
	}
	m.records[key] = rec
	return rec, nil
}

// Query returns records matching all supplied filter fields, in insertion
// order.
func (m *MemoryStore) Query(filter domain.QueryFilter) ([]domain.EquipmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.EquipmentRecord, 0, len(m.order))
	for _, key := range m.order {
		rec, ok := m.records[key]
		if !ok {
			continue
		}
		if filter.Manufacturer != "" && rec.Manufacturer != filter.Manufacturer {
			continue
		}
		if filter.Model != "" && rec.Model != filter.Model {
			continue
		}
		if filter.SerialNumber != "" && rec.SerialNumber != filter.SerialNumber {
			continue
		}
		res = append(res, rec)
	}
	return res, nil
}

// AppendExtraction records one pipeline run.
func (m *MemoryStore) AppendExtraction(entry domain.ExtractionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractions = append(m.extractions, entry)
	return nil
}

// ListExtractions returns recent audit entries, newest first.
func (m *MemoryStore) ListExtractions(limit int) ([]domain.ExtractionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = normalizeLimit(limit)
	res := make([]domain.ExtractionLog, 0, limit)
	for i := len(m.extractions) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, m.extractions[i])
	}
	return res, nil
}
