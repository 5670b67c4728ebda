// Package report renders extracted equipment records as human-readable
// inspection reports, to an io.Writer or to a timestamped file.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"irisplate/pkg/domain"
)

// Placeholder substitutes empty fields in rendered output.
const Placeholder = "Not found"

const separatorWidth = 50

// Render writes a deterministic, field-ordered rendering of the record.
func Render(w io.Writer, info domain.EquipmentInfo) error {
	fields := []struct {
		label string
		value string
	}{
		{"Equipment Name", info.EquipmentName},
		{"Installation Date", info.InstallationDate},
		{"Manufacturer", info.Manufacturer},
		{"Model", info.Model},
		{"Serial Number", info.SerialNumber},
	}
	for _, f := range fields {
		value := f.value
		if value == "" {
			value = Placeholder
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.label, value); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes an inspection report under dir and returns the file path.
// The filename carries a timestamp so successive runs never collide.
func SaveFile(dir string, info domain.EquipmentInfo) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("equipment_info_%s.txt", now.Format("20060102_150405")))

	var b strings.Builder
	b.WriteString("Equipment Inspection Report\n")
	b.WriteString(strings.Repeat("=", separatorWidth) + "\n")
	b.WriteString("Processing Date: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(strings.Repeat("-", separatorWidth) + "\n\n")
	if err := Render(&b, info); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
