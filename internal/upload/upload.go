// Package upload stores the files attached to a process: the diagram image
// and an optional document. Validation lives here so both backends enforce
// the same limits.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
)

// MaxDiagramSize caps the diagram image at 3MB.
const MaxDiagramSize = 3 << 20

// Store persists an uploaded file and returns the reference kept on the
// process record.
type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

var diagramTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// ValidateDiagram checks the diagram's content type and size.
func ValidateDiagram(contentType string, size int64) error {
	if !diagramTypes[contentType] {
		return fmt.Errorf("diagram must be image/jpeg or image/png, got %s", contentType)
	}
	if size > MaxDiagramSize {
		return fmt.Errorf("diagram exceeds the 3MB limit")
	}
	return nil
}

// ValidateDocument checks the attached document's content type.
func ValidateDocument(contentType string) error {
	if !documentTypes[contentType] {
		return fmt.Errorf("document must be a pdf or word file, got %s", contentType)
	}
	return nil
}

// objectName prefixes the original filename with random hex so two uploads
// with the same name never collide.
func objectName(original string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf) + "-" + path.Base(original)
}
