package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"irisplate/internal/util"
	"irisplate/pkg/cache"
	"irisplate/pkg/docai"
	"irisplate/pkg/domain"
	"irisplate/pkg/events"
	"irisplate/pkg/extract"
	"irisplate/pkg/storage"
	"irisplate/pkg/store"
)

// Config holds runtime configuration.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Processor   docai.Processor

	// Optional collaborators. The pipeline runs without any of them.
	Cache     cache.ExtractionCache
	Archive   storage.ImageArchive
	Publisher events.Publisher
}

// App runs the extraction pipeline: prepare image bytes, call the OCR
// collaborator once, normalize entities, reconcile into the store.
type App struct {
	processor docai.Processor
	store     store.Store
	cache     cache.ExtractionCache
	archive   storage.ImageArchive
	publisher events.Publisher
}

// New constructs the pipeline. When no store is supplied it opens Postgres
// from DatabaseURL, or falls back to the in-memory store when that is empty
// too.
func New(cfg Config) (*App, error) {
	if cfg.Processor == nil {
		return nil, fmt.Errorf("document processor required")
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			dataStore = store.NewMemoryStore()
		} else {
			var err error
			dataStore, err = store.NewGormStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		}
	}
	return &App{
		processor: cfg.Processor,
		store:     dataStore,
		cache:     cfg.Cache,
		archive:   cfg.Archive,
		publisher: cfg.Publisher,
	}, nil
}

// Process runs extraction without persisting: a single collaborator call
// followed by entity normalization. Results are memoized by image digest
// when a cache is configured.
func (a *App) Process(ctx context.Context, raw []byte) (domain.Extraction, error) {
	extraction, _, err := a.process(ctx, raw)
	return extraction, err
}

// ProcessAndPersist runs Process and reconciles the result into the store.
// The extraction is returned alongside the record; when the composite key is
// incomplete the upsert fails with a *store.ValidationError that also
// carries the extracted info, so the OCR result is never lost.
func (a *App) ProcessAndPersist(ctx context.Context, raw []byte) (domain.EquipmentRecord, domain.Extraction, error) {
	extraction, prepared, err := a.process(ctx, raw)
	if err != nil {
		return domain.EquipmentRecord{}, domain.Extraction{}, err
	}
	record, err := a.store.Upsert(extraction.Info)
	if err != nil {
		return domain.EquipmentRecord{}, extraction, err
	}
	a.afterPersist(ctx, extraction, prepared, record)
	return record, extraction, nil
}

// Upsert reconciles a caller-supplied record, bypassing extraction.
func (a *App) Upsert(info domain.EquipmentInfo) (domain.EquipmentRecord, error) {
	record, err := a.store.Upsert(info)
	if err != nil {
		return domain.EquipmentRecord{}, err
	}
	return record, nil
}

// Query returns stored records matching the filter.
func (a *App) Query(filter domain.QueryFilter) ([]domain.EquipmentRecord, error) {
	return a.store.Query(filter)
}

// ListExtractions returns recent audit entries.
func (a *App) ListExtractions(limit int) ([]domain.ExtractionLog, error) {
	return a.store.ListExtractions(limit)
}

// ErrNoArchive is returned by ImageURL when no image archive is configured.
var ErrNoArchive = errors.New("image archive not configured")

// imageURLExpiry bounds how long a re-audit link stays valid.
const imageURLExpiry = 15 * time.Minute

// ImageURL returns a pre-signed link to the archived source image for an
// extraction digest, so auditors can compare a stored record against the
// photo it came from.
func (a *App) ImageURL(ctx context.Context, digest string) (string, error) {
	if a.archive == nil {
		return "", ErrNoArchive
	}
	return a.archive.PresignGet(ctx, digest, imageURLExpiry)
}

func (a *App) process(ctx context.Context, raw []byte) (domain.Extraction, []byte, error) {
	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])

	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, digest)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("extraction cache get failed", "err", err)
		} else if ok {
			return cached, nil, nil
		}
	}

	prepared, mimeType, err := extract.PrepareDocument(raw)
	if err != nil {
		return domain.Extraction{}, nil, err
	}
	doc, err := a.processor.ProcessDocument(ctx, prepared, mimeType)
	if err != nil {
		return domain.Extraction{}, nil, err
	}
	extraction := domain.Extraction{
		Info:         extract.Normalize(doc.Entities),
		DocumentText: doc.Text,
		ImageSHA256:  digest,
		MIMEType:     mimeType,
	}
	if a.cache != nil {
		if err := a.cache.Set(ctx, digest, extraction); err != nil {
			util.LoggerFromContext(ctx).Warn("extraction cache set failed", "err", err)
		}
	}
	a.appendAudit(ctx, extraction, doc)
	return extraction, prepared, nil
}

// appendAudit records a fresh extraction. Best effort: auditing never fails
// the request.
func (a *App) appendAudit(ctx context.Context, extraction domain.Extraction, doc docai.Document) {
	entities, err := json.Marshal(doc.Entities)
	if err != nil {
		entities = nil
	}
	entry := domain.ExtractionLog{
		ID:           uuid.NewString(),
		ImageSHA256:  extraction.ImageSHA256,
		MIMEType:     extraction.MIMEType,
		DocumentText: extraction.DocumentText,
		Entities:     entities,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.AppendExtraction(entry); err != nil {
		util.LoggerFromContext(ctx).Warn("append extraction log failed", "err", err)
	}
}

// afterPersist runs the best-effort side channels: image archival and the
// upsert notification. Failures here are logged, never surfaced.
func (a *App) afterPersist(ctx context.Context, extraction domain.Extraction, prepared []byte, record domain.EquipmentRecord) {
	logger := util.LoggerFromContext(ctx)
	if a.archive != nil && len(prepared) > 0 {
		if err := a.archive.Archive(ctx, extraction.ImageSHA256, prepared, extraction.MIMEType); err != nil {
			logger.Warn("image archive failed", "digest", extraction.ImageSHA256, "err", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.PublishUpserted(ctx, record); err != nil {
			logger.Warn("upsert event publish failed", "err", err)
		}
	}
}
