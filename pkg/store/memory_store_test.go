package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"irisplate/pkg/domain"
)

func completeInfo() domain.EquipmentInfo {
	return domain.EquipmentInfo{
		EquipmentName:    "Pump",
		InstallationDate: "2019-04-01",
		Manufacturer:     "Acme",
		Model:            "X1",
		SerialNumber:     "SN-001",
	}
}

func TestUpsertRejectsIncompleteKey(t *testing.T) {
	cases := []struct {
		name string
		info domain.EquipmentInfo
	}{
		{"all empty", domain.EquipmentInfo{}},
		{"missing serial", domain.EquipmentInfo{Manufacturer: "Acme", Model: "X1"}},
		{"missing model", domain.EquipmentInfo{Manufacturer: "Acme", SerialNumber: "SN-001"}},
		{"missing manufacturer", domain.EquipmentInfo{Model: "X1", SerialNumber: "SN-001"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemoryStore()
			_, err := s.Upsert(tc.info)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Upsert() error = %v, want *ValidationError", err)
			}
			if vErr.Info != tc.info {
				t.Fatalf("validation error info = %+v, want the rejected input", vErr.Info)
			}
			records, err := s.Query(domain.QueryFilter{})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(records) != 0 {
				t.Fatalf("store contains %d records after failed upsert, want 0", len(records))
			}
		})
	}
}

func TestUpsertInsertThenQueryRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	info := completeInfo()
	rec, err := s.Upsert(info)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if rec.LastUpdated.IsZero() {
		t.Fatal("LastUpdated not set on insert")
	}
	got, err := s.Query(domain.QueryFilter{
		Manufacturer: "Acme",
		Model:        "X1",
		SerialNumber: "SN-001",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(got))
	}
	if got[0].Info() != info {
		t.Fatalf("stored record = %+v, want %+v", got[0].Info(), info)
	}
}

func TestUpsertIsIdempotentPerKey(t *testing.T) {
	s := NewMemoryStore()
	first, err := s.Upsert(completeInfo())
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	updated := completeInfo()
	updated.EquipmentName = "Booster Pump"
	second, err := s.Upsert(updated)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	records, err := s.Query(domain.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store holds %d records, want exactly 1 per key", len(records))
	}
	if records[0].EquipmentName != "Booster Pump" {
		t.Fatalf("EquipmentName = %q, want second write to win", records[0].EquipmentName)
	}
	if !second.LastUpdated.After(first.LastUpdated) {
		t.Fatalf("LastUpdated not refreshed: first=%v second=%v", first.LastUpdated, second.LastUpdated)
	}
	if second.Manufacturer != first.Manufacturer || second.Model != first.Model || second.SerialNumber != first.SerialNumber {
		t.Fatal("key fields changed across upserts")
	}
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	s := NewMemoryStore()
	seed := []domain.EquipmentInfo{
		{Manufacturer: "Acme", Model: "X1", SerialNumber: "SN-001", EquipmentName: "Pump"},
		{Manufacturer: "Acme", Model: "X2", SerialNumber: "SN-002", EquipmentName: "Fan"},
		{Manufacturer: "Borg", Model: "X1", SerialNumber: "SN-003", EquipmentName: "Chiller"},
	}
	for _, info := range seed {
		if _, err := s.Upsert(info); err != nil {
			t.Fatalf("seed Upsert() error = %v", err)
		}
	}

	all, err := s.Query(domain.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty filter returned %d records, want 3", len(all))
	}

	acme, err := s.Query(domain.QueryFilter{Manufacturer: "Acme"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := serials(acme); len(got) != 2 || !got["SN-001"] || !got["SN-002"] {
		t.Fatalf("manufacturer filter returned %v", got)
	}

	both, err := s.Query(domain.QueryFilter{Manufacturer: "Acme", Model: "X1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := serials(both); len(got) != 1 || !got["SN-001"] {
		t.Fatalf("conjunctive filter returned %v", got)
	}

	none, err := s.Query(domain.QueryFilter{Manufacturer: "Borg", Model: "X2"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("disjoint filter returned %d records, want 0", len(none))
	}
}

func serials(records []domain.EquipmentRecord) map[string]bool {
	got := make(map[string]bool, len(records))
	for _, r := range records {
		got[r.SerialNumber] = true
	}
	return got
}

func TestUpsertConcurrentSameKeySerializes(t *testing.T) {
	s := NewMemoryStore()
	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info := completeInfo()
			info.EquipmentName = fmt.Sprintf("Pump %d", i)
			if _, err := s.Upsert(info); err != nil {
				t.Errorf("concurrent Upsert() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	records, err := s.Query(domain.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store holds %d records after concurrent upserts, want 1", len(records))
	}
	got := records[0]
	if got.Manufacturer != "Acme" || got.Model != "X1" || got.SerialNumber != "SN-001" {
		t.Fatalf("key fields corrupted: %+v", got)
	}
	// The surviving non-key fields must come from exactly one of the writes,
	// never an interleaving of two.
	found := false
	for i := 0; i < writers; i++ {
		if got.EquipmentName == fmt.Sprintf("Pump %d", i) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("EquipmentName = %q, want one complete write to win", got.EquipmentName)
	}
	if got.InstallationDate != "2019-04-01" {
		t.Fatalf("InstallationDate = %q, want the written value", got.InstallationDate)
	}
	if got.LastUpdated.IsZero() {
		t.Fatal("LastUpdated not set")
	}
}

func TestConcurrentUpsertAndQuery(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			info := completeInfo()
			info.SerialNumber = fmt.Sprintf("SN-%03d", i)
			if _, err := s.Upsert(info); err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := s.Query(domain.QueryFilter{Manufacturer: "Acme"}); err != nil {
				t.Errorf("Query() error = %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := s.Query(domain.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("store holds %d records, want 8", len(records))
	}
}

func TestExtractionLogNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.AppendExtraction(domain.ExtractionLog{ID: id, CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("AppendExtraction() error = %v", err)
		}
	}
	entries, err := s.ListExtractions(2)
	if err != nil {
		t.Fatalf("ListExtractions() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "c" || entries[1].ID != "b" {
		t.Fatalf("ListExtractions(2) = %+v, want newest first", entries)
	}
}
