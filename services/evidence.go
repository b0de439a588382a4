package services

import (
	"context"
	"io"
)

// EvidenceUpload is an image the user attached to a completion.
type EvidenceUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// EvidenceStore persists evidence images and returns a public URL for them.
type EvidenceStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
