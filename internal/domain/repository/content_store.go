package repository

import "context"

// ContentStore is the document store the engine guards. Content written here can be
// changed by anything with access to the backing medium, which is what tamper detection looks for.
type ContentStore interface {
	// Read returns a NotFound error when the document has no stored content.
	Read(ctx context.Context, documentID string) ([]byte, error)
	Write(ctx context.Context, documentID string, content []byte) error
}

// BlobStore keeps immutable version snapshots addressed by digest.
type BlobStore interface {
	Put(ctx context.Context, key string, content []byte) error
	// Get returns a NotFound error for unknown keys.
	Get(ctx context.Context, key string) ([]byte, error)
}

//Personal.AI order the ending
