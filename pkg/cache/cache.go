// Package cache memoizes extraction results by image digest so re-submitting
// the same nameplate photo skips the collaborator call.
package cache

import (
	"context"

	"irisplate/pkg/domain"
)

// ExtractionCache stores pipeline results keyed by the SHA-256 of the
// original upload bytes. A miss is not an error.
type ExtractionCache interface {
	Get(ctx context.Context, digest string) (domain.Extraction, bool, error)
	Set(ctx context.Context, digest string, extraction domain.Extraction) error
}
