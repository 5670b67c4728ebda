package domain

import "time"

// EquipmentInfo is the canonical record produced by entity normalization.
// Fields with no matching entity stay empty strings, never absent, so
// callers can treat every field as a defined value.
type EquipmentInfo struct {
	EquipmentName    string `json:"equipment_name"`
	InstallationDate string `json:"installation_date"`
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	SerialNumber     string `json:"serial_number"`
}

// KeyComplete reports whether all composite-key fields are populated.
// Records failing this check are extractable but not persistable.
func (e EquipmentInfo) KeyComplete() bool {
	return e.Manufacturer != "" && e.Model != "" && e.SerialNumber != ""
}

// EquipmentRecord is the durable counterpart of EquipmentInfo, identified
// by the (manufacturer, model, serial_number) composite key. LastUpdated is
// assigned by the store on every write, never by the caller.
type EquipmentRecord struct {
	EquipmentName    string    `json:"equipment_name"`
	InstallationDate string    `json:"installation_date"`
	Manufacturer     string    `json:"manufacturer"`
	Model            string    `json:"model"`
	SerialNumber     string    `json:"serial_number"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Info returns the transient view of a persisted record.
func (r EquipmentRecord) Info() EquipmentInfo {
	return EquipmentInfo{
		EquipmentName:    r.EquipmentName,
		InstallationDate: r.InstallationDate,
		Manufacturer:     r.Manufacturer,
		Model:            r.Model,
		SerialNumber:     r.SerialNumber,
	}
}

// QueryFilter selects equipment records by exact match on the supplied
// fields. Empty fields impose no constraint; an all-empty filter matches
// every record.
type QueryFilter struct {
	Manufacturer string
	Model        string
	SerialNumber string
}

// Extraction is the full outcome of one pipeline run over an image.
type Extraction struct {
	Info         EquipmentInfo `json:"info"`
	DocumentText string        `json:"document_text"`
	ImageSHA256  string        `json:"image_sha256"`
	MIMEType     string        `json:"mime_type"`
}

// ExtractionLog is an audit entry recorded for each processed image.
type ExtractionLog struct {
	ID           string    `json:"id"`
	ImageSHA256  string    `json:"image_sha256"`
	MIMEType     string    `json:"mime_type"`
	DocumentText string    `json:"document_text"`
	Entities     []byte    `json:"entities,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
