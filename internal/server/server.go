package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"irisplate/internal/apitoken"
	"irisplate/internal/app"
	"irisplate/internal/util"
	"irisplate/pkg/domain"
	"irisplate/pkg/extract"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// APITokenSecret enables bearer-token auth on mutating routes when set.
	APITokenSecret string

	MaxUploadBytes int64

	// ExtractionListLimit caps GET /extractions responses. Zero means the
	// store default.
	ExtractionListLimit int
}

// Server exposes the equipment records HTTP surface.
type Server struct {
	app             *app.App
	verifier        *apitoken.Verifier
	mux             *http.ServeMux
	maxUploadBytes  int64
	extractionLimit int
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 * 1024 * 1024
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		maxUploadBytes:  maxUploadBytes,
		extractionLimit: cfg.ExtractionListLimit,
	}
	if strings.TrimSpace(cfg.APITokenSecret) != "" {
		verifier, err := apitoken.NewVerifier(cfg.APITokenSecret)
		if err != nil {
			return nil, err
		}
		s.verifier = verifier
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/equipment", s.handleEquipment)
	// Legacy route used by the deployed inspection app.
	s.mux.HandleFunc("/iris_equipment_records", s.handleEquipment)
	s.mux.HandleFunc("/upload_image", s.handleUploadImage)
	s.mux.HandleFunc("/extractions", s.handleExtractions)
	s.mux.HandleFunc("/image_url", s.handleImageURL)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpsertEquipment(w, r)
	case http.MethodGet:
		s.handleQueryEquipment(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpsertEquipment(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var info domain.EquipmentInfo
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	record, err := s.app.Upsert(info)
	if err != nil {
		s.writeUpsertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleQueryEquipment(w http.ResponseWriter, r *http.Request) {
	filter := domain.QueryFilter{
		Manufacturer: strings.TrimSpace(r.URL.Query().Get("manufacturer")),
		Model:        strings.TrimSpace(r.URL.Query().Get("model")),
		SerialNumber: strings.TrimSpace(r.URL.Query().Get("serial_number")),
	}
	records, err := s.app.Query(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type uploadRequest struct {
	Image string `json:"image"`
}

type uploadResponse struct {
	DocumentText string                  `json:"document_text"`
	Info         domain.EquipmentInfo    `json:"info"`
	Record       *domain.EquipmentRecord `json:"record,omitempty"`
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.authorized(w, r) {
		return
	}
	var req uploadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "no image provided")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image")
		return
	}

	record, extraction, err := s.app.ProcessAndPersist(r.Context(), raw)
	if err != nil {
		if vErr, ok := app.AsValidation(err); ok {
			// The OCR result is returned with the error so nothing is lost.
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:     vErr.Error(),
				RequestID: requestID(w),
				Info:      &vErr.Info,
			})
			return
		}
		// Every failure class on this route answers 400; the clients of the
		// original field app only distinguish success from failure here.
		if app.IsCollaborator(err) {
			writeError(w, http.StatusBadRequest, "document processing failed")
			return
		}
		if errors.Is(err, extract.ErrUnreadableDocument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "could not persist record")
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		DocumentText: extraction.DocumentText,
		Info:         extraction.Info,
		Record:       &record,
	})
}

func (s *Server) handleExtractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	entries, err := s.app.ListExtractions(s.extractionLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"count": len(entries),
	})
}

func (s *Server) handleImageURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	digest := strings.TrimSpace(r.URL.Query().Get("digest"))
	if digest == "" {
		writeError(w, http.StatusBadRequest, "digest is required")
		return
	}
	url, err := s.app.ImageURL(r.Context(), digest)
	if err != nil {
		if errors.Is(err, app.ErrNoArchive) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.verifier == nil {
		return true
	}
	token, ok := apitoken.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if _, err := s.verifier.Verify(token); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

func (s *Server) writeUpsertError(w http.ResponseWriter, err error) {
	if vErr, ok := app.AsValidation(err); ok {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	// Store failures answer 400 as well, matching the legacy contract.
	writeError(w, http.StatusBadRequest, "could not persist record")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string                `json:"error"`
	RequestID string                `json:"request_id,omitempty"`
	Info      *domain.EquipmentInfo `json:"info,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: requestID(w),
	})
}

func requestID(w http.ResponseWriter) string {
	return strings.TrimSpace(w.Header().Get("X-Request-Id"))
}
