package app

import (
	"errors"

	"irisplate/pkg/docai"
	"irisplate/pkg/store"
)

// AsValidation unwraps a composite-key validation failure. The returned
// error carries the extracted info for caller review.
func AsValidation(err error) (*store.ValidationError, bool) {
	var vErr *store.ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// IsCollaborator reports whether the OCR collaborator call failed or
// returned an unusable response.
func IsCollaborator(err error) bool {
	var cErr *docai.Error
	return errors.As(err, &cErr)
}
