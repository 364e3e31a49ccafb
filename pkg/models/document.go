package models

import (
	"strings"
	"time"
)

// RevisionStatus mirrors the review workflow a revision moves through.
// The numeric gaps are intentional: new states can be slotted in without
// renumbering rows already in the database.
type RevisionStatus int

const (
	StatusDraft        RevisionStatus = 0
	StatusImported     RevisionStatus = 10
	StatusContribution RevisionStatus = 15
	StatusRejected     RevisionStatus = 99
	StatusApproved     RevisionStatus = 100
	StatusPublished    RevisionStatus = 200
)

// Document is the durable archive entity. Its key is the external
// cross-reference identifier (the Zotero item key) and never changes
// once the row exists.
type Document struct {
	ID         int64              `json:"id"`
	Key        string             `json:"key"`
	CurrentRev *int               `json:"current_rev,omitempty"`
	Revisions  []DocumentRevision `json:"revisions,omitempty"`
}

// DocumentRevision is an immutable snapshot of a document's metadata and
// page images. (document_id, revision_number) is unique.
type DocumentRevision struct {
	ID             int64           `json:"id"`
	DocumentID     int64           `json:"document_id"`
	Label          string          `json:"label"`
	Status         RevisionStatus  `json:"status"`
	RevisionNumber int             `json:"revision_number"`
	Timestamp      time.Time       `json:"timestamp"`
	Content        RevisionContent `json:"content"`
	Transcriptions []Transcription `json:"transcriptions,omitempty"`
}

// Transcription holds the transcript text of one page of a revision.
// PageNumber is 1-based within the owning revision.
type Transcription struct {
	ID            int64  `json:"id"`
	DocumentRevID int64  `json:"document_rev_id"`
	PageNumber    int    `json:"page_number"`
	LanguageCode  string `json:"language_code"`
	Text          string `json:"text"`
	IsTranslation bool   `json:"is_translation"`
}

// EntityType is one of the three seeded reference rows (Voyages,
// Enslaved, Enslavers). Read-only everywhere outside the schema seed.
type EntityType struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URLFormat string `json:"url_format"`
}

// URL expands the {key} placeholder in the type's url_format into a
// public link for the given entity key.
func (t EntityType) URL(entityKey string) string {
	return strings.ReplaceAll(t.URLFormat, "{key}", entityKey)
}

// EntityDocument links a document to an external domain entity.
type EntityDocument struct {
	ID           int64  `json:"id"`
	DocumentID   int64  `json:"document_id"`
	EntityTypeID int64  `json:"entity_type_id"`
	EntityKey    string `json:"entity_key"`
	Notes        string `json:"notes,omitempty"`
}
