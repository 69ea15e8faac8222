package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

// ValidateDocumentID rejects ids that cannot name a stored document: the empty id, the
// relative path elements "." and "..", and ids carrying NUL.
func ValidateDocumentID(id string) error {
	switch {
	case id == "":
		return errors.InvalidArgument("document id is required")
	case id == "." || id == "..":
		return errors.InvalidArgument("document id must not be a relative path element")
	case strings.ContainsRune(id, 0):
		return errors.InvalidArgument("document id must not contain NUL")
	}
	return nil
}

// Document is the head of a version chain.
// CurrentDigest always equals the fingerprint of the content last written through the engine.
type Document struct {
	ID             string    `json:"id"`
	Department     string    `json:"department"`
	CurrentDigest  string    `json:"current_digest"`
	LatestSequence int64     `json:"latest_sequence"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDocument creates a document with an empty chain.
func NewDocument(id, department string, now time.Time) *Document {
	return &Document{
		ID:         id,
		Department: department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Advance moves the head of the chain to v.
func (d *Document) Advance(v *Version) {
	d.CurrentDigest = v.Digest
	d.LatestSequence = v.Sequence
	d.UpdatedAt = v.CreatedAt
}

// Version is one immutable, sequenced snapshot of a document.
type Version struct {
	ID         uuid.UUID               `json:"id"`
	DocumentID string                  `json:"document_id"`
	Sequence   int64                   `json:"sequence"`
	Digest     string                  `json:"digest"`
	ContentRef string                  `json:"content_ref"` // blob key; content addressed, equal to Digest
	Size       int64                   `json:"size"`
	AuthorID   string                  `json:"author_id"`
	Origin     constants.VersionOrigin `json:"origin"`
	RiskScore  float64                 `json:"risk_score"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewVersion creates the next version of a document.
func NewVersion(documentID string, sequence int64, digest string, size int64, authorID string, origin constants.VersionOrigin, now time.Time) *Version {
	return &Version{
		ID:         uuid.New(),
		DocumentID: documentID,
		Sequence:   sequence,
		Digest:     digest,
		ContentRef: digest,
		Size:       size,
		AuthorID:   authorID,
		Origin:     origin,
		CreatedAt:  now,
	}
}

// IsExternal reports whether the version records an out-of-band change.
func (v *Version) IsExternal() bool {
	return v.Origin == constants.OriginExternalDetected
}

//Personal.AI order the ending
