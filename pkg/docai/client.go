package docai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Processor accepts opaque image bytes plus a MIME type and returns the
// recognized document. The pipeline makes a single call per image, no retries.
type Processor interface {
	ProcessDocument(ctx context.Context, content []byte, mimeType string) (Document, error)
}

// Error marks a failed or unusable collaborator response so callers can
// distinguish it from validation and store failures.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("docai: %s: %v", e.msg, e.err)
	}
	return "docai: " + e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Client calls the Document AI REST API.
type Client struct {
	baseURL     string
	processor   string
	accessToken string
	httpClient  *http.Client
}

// Config identifies a deployed processor. Endpoint overrides the regional
// default, used by tests.
type Config struct {
	ProjectID   string
	Location    string
	ProcessorID string
	AccessToken string
	Endpoint    string
}

// NewClient constructs a client for one processor.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("docai project ID required")
	}
	if strings.TrimSpace(cfg.Location) == "" {
		return nil, fmt.Errorf("docai location required")
	}
	if strings.TrimSpace(cfg.ProcessorID) == "" {
		return nil, fmt.Errorf("docai processor ID required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-documentai.googleapis.com", cfg.Location)
	}
	return &Client{
		baseURL:     baseURL,
		processor:   fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID),
		accessToken: strings.TrimSpace(cfg.AccessToken),
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// ProcessDocument submits image bytes and returns the recognized document.
func (c *Client) ProcessDocument(ctx context.Context, content []byte, mimeType string) (Document, error) {
	if len(content) == 0 {
		return Document{}, &Error{msg: "empty document content"}
	}
	reqBody := processRequest{
		RawDocument: rawDocument{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: mimeType,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Document{}, &Error{msg: "encode request", err: err}
	}

	url := fmt.Sprintf("%s/v1/%s:process", c.baseURL, c.processor)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Document{}, &Error{msg: "build request", err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, &Error{msg: "process document", err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return Document{}, &Error{msg: "api error: " + errResp.Error.Message}
		}
		return Document{}, &Error{msg: "api error: " + resp.Status}
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Document{}, &Error{msg: "decode response", err: err}
	}
	doc := Document{Text: out.Document.Text}
	for _, e := range out.Document.Entities {
		doc.Entities = append(doc.Entities, Entity{
			Type:           e.Type,
			MentionText:    e.MentionText,
			NormalizedText: e.NormalizedValue.Text,
		})
	}
	return doc, nil
}
