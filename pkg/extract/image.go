package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	_ "image/gif"
	_ "image/png"

	"github.com/ledongthuc/pdf"
)

const (
	// jpegQuality matches what the mobile clients already upload.
	jpegQuality = 95

	// maxPDFPages is the synchronous processing limit of the collaborator.
	maxPDFPages = 15

	MIMEJPEG = "image/jpeg"
	MIMEPDF  = "application/pdf"
)

// ErrUnreadableDocument marks uploads that could not be decoded or prepared,
// as opposed to downstream collaborator or store failures.
var ErrUnreadableDocument = errors.New("unreadable document")

// PrepareDocument converts raw upload bytes into a form the collaborator
// accepts: images are re-encoded as JPEG (flattening any alpha channel),
// PDFs pass through after a page-count check. The returned MIME type
// describes the returned bytes.
func PrepareDocument(raw []byte) ([]byte, string, error) {
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("%w: empty upload", ErrUnreadableDocument)
	}
	if http.DetectContentType(raw) == MIMEPDF {
		if err := checkPDFPages(raw); err != nil {
			return nil, "", err
		}
		return raw, MIMEPDF, nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %v", ErrUnreadableDocument, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), MIMEJPEG, nil
}

func checkPDFPages(raw []byte) error {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("%w: read pdf: %v", ErrUnreadableDocument, err)
	}
	if pages := reader.NumPage(); pages > maxPDFPages {
		return fmt.Errorf("%w: pdf has %d pages, limit is %d", ErrUnreadableDocument, pages, maxPDFPages)
	}
	return nil
}
