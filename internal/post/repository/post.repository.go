package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrStoreUnavailable wraps every fault raised by a backing database.
// A missing document is never reported through it.
var ErrStoreUnavailable = errors.New("post store unavailable")

// Document is a post as the store keeps it. Fields is schemaless: the store
// accepts whatever map it is given.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt *time.Time
}

// PostStore is the document collection holding posts.
// Implementations must be safe for concurrent use.
type PostStore interface {
	// ListAll returns every document, newest createdAt first.
	ListAll(ctx context.Context) ([]Document, error)
	// GetByID reports found=false when no document has the id.
	GetByID(ctx context.Context, id string) (Document, bool, error)
	// Create stores fields under a fresh id and stamps createdAt with the
	// store's clock.
	Create(ctx context.Context, fields map[string]any) (string, error)
	// UpdateByID merges fields into an existing document. id and createdAt
	// are never touched.
	UpdateByID(ctx context.Context, id string, fields map[string]any) (bool, error)
	// DeleteByID removes the document.
	DeleteByID(ctx context.Context, id string) (bool, error)
}

func newID() string {
	return uuid.NewString()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// withoutReserved drops keys that would shadow the id or the server timestamp.
func withoutReserved(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" || k == "createdAt" {
			continue
		}
		out[k] = v
	}
	return out
}
