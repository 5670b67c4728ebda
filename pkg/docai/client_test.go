package docai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{
		ProjectID:   "proj",
		Location:    "eu",
		ProcessorID: "proc-1",
		AccessToken: "token-1",
		Endpoint:    srv.URL,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

func TestProcessDocumentParsesEntities(t *testing.T) {
	imageBytes := []byte("fake-jpeg-bytes")
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/proj/locations/eu/processors/proc-1:process" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.RawDocument.MimeType != "image/jpeg" {
			t.Errorf("mimeType = %q, want image/jpeg", req.RawDocument.MimeType)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.RawDocument.Content)
		if err != nil || string(decoded) != string(imageBytes) {
			t.Errorf("content did not round-trip: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"document": map[string]any{
				"text": "ACME X1 SN-001",
				"entities": []map[string]any{
					{"type": "Manufacturer", "mentionText": "acme", "normalizedValue": map[string]string{"text": "Acme"}},
					{"type": "Serial_Number", "mentionText": "SN-001"},
				},
			},
		})
	})

	doc, err := client.ProcessDocument(context.Background(), imageBytes, "image/jpeg")
	if err != nil {
		t.Fatalf("ProcessDocument() error = %v", err)
	}
	if doc.Text != "ACME X1 SN-001" {
		t.Fatalf("doc.Text = %q", doc.Text)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("len(doc.Entities) = %d, want 2", len(doc.Entities))
	}
	if doc.Entities[0].Type != "Manufacturer" || doc.Entities[0].NormalizedText != "Acme" {
		t.Fatalf("entities[0] = %+v", doc.Entities[0])
	}
	if doc.Entities[1].Type != "Serial_Number" || doc.Entities[1].NormalizedText != "" {
		t.Fatalf("entities[1] = %+v", doc.Entities[1])
	}
}

func TestProcessDocumentAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "permission denied"}})
	})
	_, err := client.ProcessDocument(context.Background(), []byte("x"), "image/jpeg")
	if err == nil {
		t.Fatal("ProcessDocument() error = nil, want api error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not a docai error", err)
	}
}

func TestProcessDocumentRejectsEmptyContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("collaborator should not be called for empty content")
	})
	if _, err := client.ProcessDocument(context.Background(), nil, "image/jpeg"); err == nil {
		t.Fatal("ProcessDocument(nil) error = nil, want error")
	}
}
