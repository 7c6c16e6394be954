package storage

import "context"

// StoredFile references an uploaded object held by the storage provider.
// Only the locator pair is persisted on records; the bytes belong to the
// provider.
type StoredFile struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Provider abstracts the external file-storage collaborator.
type Provider interface {
	Upload(ctx context.Context, data []byte, folder, filename string) (*StoredFile, error)
	Delete(ctx context.Context, publicID string) error
}
